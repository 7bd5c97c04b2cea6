package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersion_Defaults(t *testing.T) {
	require.NotEmpty(t, Version)
	require.NotEmpty(t, BuildTime)
	require.NotEmpty(t, GitCommit)
}

func TestString_OmitsUnknownCommit(t *testing.T) {
	require.Equal(t, Version, String())
}
