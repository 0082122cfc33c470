// Package syncer runs pulls and pushes: it moves catalogs between the
// remote gateway and the file store, converting shapes and formats on the
// way.
package syncer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/minios-linux/transync/catalog"
	"github.com/minios-linux/transync/format"
	"github.com/minios-linux/transync/reconcile"
	"github.com/minios-linux/transync/remote"
	"github.com/minios-linux/transync/store"
	"github.com/minios-linux/transync/syncerr"
)

// Gateway is the remote side of a sync.
type Gateway interface {
	Fetch(ctx context.Context, opts remote.FetchOptions) (*remote.FetchResponse, error)
	Push(ctx context.Context, payload reconcile.PushPayload) ([]byte, error)
}

// Service runs syncs against one gateway.
type Service struct {
	gw  Gateway
	log *zap.Logger
}

// New returns a Service.
func New(gw Gateway, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{gw: gw, log: log}
}

// ---------------------------------------------------------------------------
// Pull
// ---------------------------------------------------------------------------

// PullOptions configures a pull.
type PullOptions struct {
	// Format is the configured output format: json, php, raw or yaml.
	Format   string
	Language string
	Status   string
	Filename string
	Missing  bool
	DryRun   bool
	// Start, when set, is called with the number of files before any is
	// written.
	Start func(files int)
	// Progress, when set, is called after each file.
	Progress func(FileResult)
}

// FileResult reports one generated file.
type FileResult struct {
	Language string
	File     string
	Path     string
	Keys     int
	// Status is meaningless on dry runs.
	Status store.WriteStatus
}

// PullResult summarizes a pull.
type PullResult struct {
	Files     []FileResult
	Keys      int
	Languages []string
	DryRun    bool
}

// Empty reports whether the service returned nothing to write.
func (r *PullResult) Empty() bool { return len(r.Files) == 0 }

// Count returns how many files ended with the given status.
func (r *PullResult) Count(status store.WriteStatus) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// apiFormat returns the format requested from the service for a file kind.
// YAML is built locally from the JSON rendering.
func apiFormat(setting string, kind format.Kind) string {
	if kind == format.YAML {
		return "json"
	}
	return setting
}

// Pull fetches translations and writes one file per language and resource
// file into st.
func (s *Service) Pull(ctx context.Context, st *store.Store, opts PullOptions) (*PullResult, error) {
	const op = "pull"

	kind, err := format.FromSetting(opts.Format)
	if err != nil {
		return nil, syncerr.Wrap(op, syncerr.PhaseFetch, err)
	}

	resp, err := s.gw.Fetch(ctx, remote.FetchOptions{
		Format:   apiFormat(opts.Format, kind),
		Language: opts.Language,
		Status:   opts.Status,
		Filename: opts.Filename,
		Missing:  opts.Missing,
	})
	if err != nil {
		return nil, syncerr.Wrap(op, syncerr.PhaseFetch, err)
	}

	res := &PullResult{DryRun: opts.DryRun}
	local := catalog.ToLocal(resp.Translations, opts.Language)
	if len(local) == 0 {
		return res, nil
	}
	s.log.Info("fetched translations",
		zap.Int("files", local.FileCount()), zap.Int("keys", local.KeyCount()), zap.String("format", string(kind)))

	if kind.Nested() {
		local, err = catalog.Expand(local)
		if err != nil {
			e := &syncerr.Error{Op: op, Phase: syncerr.PhasePivot, Err: err}
			var ke *catalog.KeyError
			if errors.As(err, &ke) {
				e.Language, e.File, e.Err = ke.Language, ke.File, ke.Err
			}
			return nil, e
		}
	}

	res.Keys = resp.Total
	if res.Keys == 0 {
		res.Keys = local.KeyCount()
	}
	res.Languages = resp.Languages
	if len(res.Languages) == 0 {
		res.Languages = local.Languages()
	}

	if opts.Start != nil {
		opts.Start(local.FileCount())
	}
	for _, lang := range local.Languages() {
		for _, file := range local.Files(lang) {
			if err := store.CheckName(lang, file); err != nil {
				return nil, &syncerr.Error{Op: op, Phase: syncerr.PhaseWrite, Language: lang, File: file, Err: err}
			}
			tree := local[lang][file]
			data, err := format.Render(tree, kind)
			if err != nil {
				return nil, &syncerr.Error{Op: op, Phase: syncerr.PhaseRender, Language: lang, File: file, Err: err}
			}

			fr := FileResult{Language: lang, File: file, Keys: tree.Count()}
			if opts.DryRun {
				fr.Path = st.Path(lang, file, kind)
			} else {
				fr.Path, fr.Status, err = st.Write(lang, file, kind, data)
				if err != nil {
					return nil, &syncerr.Error{Op: op, Phase: syncerr.PhaseWrite, Language: lang, File: file, Err: err}
				}
			}
			s.log.Debug("pulled file", zap.String("language", lang), zap.String("file", file), zap.String("path", fr.Path))

			res.Files = append(res.Files, fr)
			if opts.Progress != nil {
				opts.Progress(fr)
			}
		}
	}
	return res, nil
}

// ---------------------------------------------------------------------------
// Push
// ---------------------------------------------------------------------------

// PushPlan is the local data a push would send.
type PushPlan struct {
	Scope   reconcile.Scope
	Catalog catalog.Local
	Files   []store.File
	Skipped []store.Skipped
}

// Empty reports whether nothing was found to push.
func (p *PushPlan) Empty() bool { return len(p.Files) == 0 }

// Keys returns the number of keys in the plan.
func (p *PushPlan) Keys() int { return p.Catalog.KeyCount() }

// PlanPush loads the files of st selected by filter.
func (s *Service) PlanPush(st *store.Store, filter store.Filter) (*PushPlan, error) {
	res, err := st.Load(filter)
	if err != nil {
		return nil, &syncerr.Error{Op: "push", Phase: syncerr.PhaseRead, File: st.Root(), Err: err}
	}
	return &PushPlan{
		Scope:   reconcile.ScopeFor(filter.Language, filter.File),
		Catalog: res.Catalog,
		Files:   res.Files,
		Skipped: res.Skipped,
	}, nil
}

// Push sends plan to the service and returns its summary.
func (s *Service) Push(ctx context.Context, plan *PushPlan, overwrite bool) (reconcile.Outcome, error) {
	const op = "push"

	payload := reconcile.BuildPushRequest(plan.Catalog, plan.Scope, overwrite)
	s.log.Info("pushing translations",
		zap.Stringer("scope", plan.Scope.Kind()), zap.Int("keys", plan.Keys()), zap.Bool("overwrite", overwrite))

	body, err := s.gw.Push(ctx, payload)
	if err != nil {
		return reconcile.Outcome{}, &syncerr.Error{Op: op, Phase: syncerr.PhasePush, Language: plan.Scope.Language, File: plan.Scope.File, Err: err}
	}
	outcome, err := reconcile.InterpretResponse(body)
	if err != nil {
		return reconcile.Outcome{}, &syncerr.Error{Op: op, Phase: syncerr.PhasePush, Language: plan.Scope.Language, File: plan.Scope.File, Err: err}
	}
	return outcome, nil
}
