// Package builder orchestrates document builds: it discovers sources,
// decides which documents are stale, runs the transformation, and emits the
// per-document JSON artifacts plus the global cross-reference index.
package builder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/mystbuilder/internal/buildstate"
	"git.home.luguber.info/inful/mystbuilder/internal/config"
	"git.home.luguber.info/inful/mystbuilder/internal/doctree"
	merrors "git.home.luguber.info/inful/mystbuilder/internal/errors"
	"git.home.luguber.info/inful/mystbuilder/internal/events"
	"git.home.luguber.info/inful/mystbuilder/internal/logfields"
	"git.home.luguber.info/inful/mystbuilder/internal/metrics"
	"git.home.luguber.info/inful/mystbuilder/internal/transform"
)

// Slugify flattens a document path into a slug.
func Slugify(docname string) string {
	return strings.ReplaceAll(docname, "/", "-")
}

// Builder runs builds against one source tree.
type Builder struct {
	cfg       *config.Config
	sourceDir string
	state     *buildstate.Store
	rec       metrics.Recorder
	pub       events.Publisher
	logger    *slog.Logger

	// docExts remembers each discovered docname's source extension.
	docExts map[string]string
}

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder wires a metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(b *Builder) { b.rec = rec }
}

// WithPublisher wires a build-event publisher.
func WithPublisher(pub events.Publisher) Option {
	return func(b *Builder) { b.pub = pub }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// New creates a Builder. sourceDir is the resolved source tree (already
// cloned if the config named a repository).
func New(cfg *config.Config, sourceDir string, state *buildstate.Store, opts ...Option) *Builder {
	b := &Builder{
		cfg:       cfg,
		sourceDir: sourceDir,
		state:     state,
		rec:       metrics.NoopRecorder{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Summary reports what one build run did.
type Summary struct {
	Built   int
	Skipped int
	Failed  int
}

// BuildAll transforms every stale document and reassembles the
// cross-reference index. A document that fails to transform produces no
// output; the rest of the build proceeds.
func (b *Builder) BuildAll(ctx context.Context, buildID string, force bool) (*Summary, error) {
	start := time.Now()
	defer func() { b.rec.ObserveBuildDuration(time.Since(start)) }()

	docnames, err := b.discover()
	if err != nil {
		return nil, err
	}
	if len(docnames) == 0 {
		b.logger.Warn("No documents found", logfields.Source(b.sourceDir))
		return &Summary{}, nil
	}

	if err := os.MkdirAll(filepath.Join(b.cfg.Output.Directory, "content"), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	summary := &Summary{}
	written := make([]string, 0, len(docnames))
	for _, docname := range docnames {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		outcome, err := b.buildDoc(ctx, docname, buildID, force)
		switch {
		case err != nil:
			summary.Failed++
			b.rec.IncDocResult(metrics.ResultFatal)
			// A failed transformation produced no output; the document
			// stays out of the index entirely.
			b.logger.Error("Document build failed", logfields.Docname(docname),
				logfields.Category(string(merrors.GetCategory(err))), logfields.Error(err))
		case outcome == outcomeSkipped:
			summary.Skipped++
			b.rec.IncDocResult(metrics.ResultSkipped)
			written = append(written, docname)
		default:
			summary.Built++
			b.rec.IncDocResult(metrics.ResultSuccess)
			written = append(written, docname)
		}
	}

	if err := b.writeXrefIndex(written); err != nil {
		return summary, err
	}

	b.logger.Info("Build finished",
		"built", summary.Built, "skipped", summary.Skipped, "failed", summary.Failed,
		"duration", time.Since(start))
	return summary, nil
}

type outcome int

const (
	outcomeBuilt outcome = iota
	outcomeSkipped
)

// buildDoc transforms and writes one document if it is stale.
func (b *Builder) buildDoc(ctx context.Context, docname, buildID string, force bool) (outcome, error) {
	start := time.Now()

	srcPath := b.docSourcePath(docname)
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return outcomeBuilt, fmt.Errorf("read source: %w", err)
	}

	sum := sha256.Sum256(data)
	srcHash := hex.EncodeToString(sum[:])

	if !force {
		stale, err := b.isStale(ctx, docname, srcHash)
		if err != nil {
			return outcomeBuilt, err
		}
		if !stale {
			b.logger.Debug("Document unchanged, skipping", logfields.Docname(docname))
			return outcomeSkipped, nil
		}
	}

	root, err := b.parse(docname, data)
	if err != nil {
		return outcomeBuilt, merrors.Wrap(err, merrors.CategoryParse, merrors.SeverityError,
			"failed to parse document").WithContext("docname", docname)
	}

	// One transformer per document: traversal state is not shareable.
	tr := transform.New(
		transform.WithRecorder(b.rec),
		transform.WithLogger(b.logger.With(logfields.Docname(docname))),
	)
	mdast, err := tr.Transform(root)
	if err != nil {
		return outcomeBuilt, merrors.Wrap(err, merrors.CategoryTransform, merrors.SeverityError,
			"failed to transform document").WithContext("docname", docname)
	}
	b.rec.ObserveTransformDuration(time.Since(start))

	slug := Slugify(docname)
	env := newEnvelope(docname, slug, srcHash, mdast)
	if err := b.writeEnvelope(docname, env); err != nil {
		return outcomeBuilt, merrors.Wrap(err, merrors.CategoryEmit, merrors.SeverityError,
			"failed to write document artifact").WithContext("docname", docname)
	}

	if err := b.state.Put(ctx, buildstate.Record{
		Docname:    docname,
		SourceHash: srcHash,
		BuiltAt:    time.Now(),
		BuildID:    buildID,
	}); err != nil {
		return outcomeBuilt, merrors.Wrap(err, merrors.CategoryState, merrors.SeverityError,
			"failed to record build state").WithContext("docname", docname)
	}

	if b.pub != nil {
		ev := events.DocBuilt{
			Docname:  docname,
			Slug:     slug,
			SHA256:   srcHash,
			BuildID:  buildID,
			Duration: time.Since(start),
		}
		if err := b.pub.PublishDocBuilt(ev); err != nil {
			b.logger.Warn("Failed to publish doc-built event", logfields.Docname(docname), logfields.Error(err))
		}
	}

	b.logger.Info("Document built", logfields.Docname(docname), logfields.Slug(slug),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return outcomeBuilt, nil
}

// isStale reports whether the document needs rebuilding: changed source
// hash, missing state, or missing output artifact.
func (b *Builder) isStale(ctx context.Context, docname, srcHash string) (bool, error) {
	rec, ok, err := b.state.Get(ctx, docname)
	if err != nil {
		return false, err
	}
	if !ok || rec.SourceHash != srcHash {
		return true, nil
	}
	if _, err := os.Stat(b.docOutputPath(docname)); err != nil {
		return true, nil
	}
	return false, nil
}

// parse runs the frontend matching the document's format.
func (b *Builder) parse(docname string, data []byte) (doctree.Node, error) {
	switch filepath.Ext(b.docSourcePath(docname)) {
	case ".xml":
		root, err := doctree.ParseXML(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse document xml: %w", err)
		}
		return root, nil
	default:
		root, err := doctree.ParseMarkdown(data)
		if err != nil {
			return nil, fmt.Errorf("parse markdown: %w", err)
		}
		return root, nil
	}
}

// discover finds every buildable document under the source tree, returning
// sorted docnames (relative paths without extension, slash-separated).
func (b *Builder) discover() ([]string, error) {
	exts := map[string]bool{}
	switch b.cfg.Source.Format {
	case config.FormatXML:
		exts[".xml"] = true
	case config.FormatMarkdown:
		exts[".md"] = true
	default:
		exts[".xml"] = true
		exts[".md"] = true
	}

	docnames := make([]string, 0)
	extByDoc := map[string]string{}
	err := filepath.WalkDir(b.sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != b.sourceDir {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if !exts[ext] {
			return nil
		}
		rel, err := filepath.Rel(b.sourceDir, path)
		if err != nil {
			return err
		}
		docname := filepath.ToSlash(strings.TrimSuffix(rel, ext))
		if prev, ok := extByDoc[docname]; ok {
			b.logger.Warn("Duplicate sources for document, keeping first",
				logfields.Docname(docname), "kept", prev, "ignored", ext)
			return nil
		}
		docnames = append(docnames, docname)
		extByDoc[docname] = ext
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover documents: %w", err)
	}

	sort.Strings(docnames)
	b.docExts = extByDoc
	return docnames, nil
}

// docSourcePath maps a docname back to its source file.
func (b *Builder) docSourcePath(docname string) string {
	ext := b.docExts[docname]
	return filepath.Join(b.sourceDir, filepath.FromSlash(docname)+ext)
}

// docOutputPath is where the document's envelope lands.
func (b *Builder) docOutputPath(docname string) string {
	return filepath.Join(b.cfg.Output.Directory, "content", Slugify(docname)+".myst.json")
}

// writeEnvelope serializes one document artifact.
func (b *Builder) writeEnvelope(docname string, env Envelope) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document artifact: %w", err)
	}
	if err := os.WriteFile(b.docOutputPath(docname), data, 0o644); err != nil {
		return fmt.Errorf("write document artifact: %w", err)
	}
	return nil
}
