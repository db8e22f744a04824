package cmd

import (
	"context"
	"fmt"

	"github.com/sabaqlab/sabaq/internal/api"
	"github.com/sabaqlab/sabaq/internal/app"
	"github.com/sabaqlab/sabaq/internal/assessment"
	"github.com/sabaqlab/sabaq/internal/config"
	"github.com/sabaqlab/sabaq/internal/screens/result"
	"github.com/sabaqlab/sabaq/internal/store"
	"github.com/sabaqlab/sabaq/internal/submit"
)

// deps bundles the services every command is built from.
type deps struct {
	store    *store.Store
	tokens   api.TokenSource
	client   *api.Client
	pipeline *submit.Pipeline
}

// openDeps opens the local store and wires the client and submission
// pipeline from cfg.
func openDeps(cfg config.Config) (*deps, error) {
	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	tokens, err := cfg.TokenSource()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("resolve token: %w", err)
	}

	client := api.New(cfg.BaseURL,
		api.WithTokenSource(tokens),
		api.WithTimeout(cfg.RequestTimeout),
	)
	strategies := submit.Strategies(client, cfg.Retry(), cfg.FallbackAttempts, st.EventRepo())

	return &deps{
		store:    st,
		tokens:   tokens,
		client:   client,
		pipeline: submit.NewPipeline(st.BackupRepo(), strategies...),
	}, nil
}

func (d *deps) Close() error {
	return d.store.Close()
}

// reviews fetches the caller's own graded attempt, identifying the caller
// from the token's user claim.
func (d *deps) reviews(ctx context.Context, groupID, assessmentID string) (*assessment.Review, error) {
	token, err := d.tokens.Token()
	if err != nil {
		return nil, err
	}
	userID, err := api.UserIDFromToken(token)
	if err != nil {
		return nil, err
	}
	return d.client.GetResults(ctx, groupID, assessmentID, userID)
}

func (d *deps) appOptions(groupID, assessmentID string) app.Options {
	return app.Options{
		Fetcher:      d.client,
		Pipeline:     d.pipeline,
		Backups:      d.store.BackupRepo(),
		Reviews:      result.ReviewFunc(d.reviews),
		GroupID:      groupID,
		AssessmentID: assessmentID,
	}
}
