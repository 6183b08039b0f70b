package app

import (
	"context"
	"fmt"

	"github.com/vk/keywordgo/internal/ctxlog"
	"github.com/vk/keywordgo/internal/engine"
	"github.com/vk/keywordgo/internal/hcl"
	"github.com/vk/keywordgo/internal/result"
	"github.com/vk/keywordgo/internal/session"
	"github.com/vk/keywordgo/internal/vars"
)

// Run executes every test in the loaded suite sequentially and returns an
// error if any of them failed.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if len(a.suite.Tests) == 0 {
		a.logger.Warn("No tests found in suite, execution not required.")
		return nil
	}

	a.logger.Info("🚀 Starting suite execution.", "tests", len(a.suite.Tests), "dry_run", cfg.DryRun)
	failed := 0
	for _, test := range a.suite.Tests {
		if status := a.runTest(ctx, cfg, test); status == result.Fail {
			failed++
		}
	}
	a.logger.Info("🏁 Suite finished.", "passed", len(a.suite.Tests)-failed, "failed", failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d tests failed", failed, len(a.suite.Tests))
	}
	return nil
}

// runTest runs one test in its own session. The body and the teardown run
// through separate top-level entries: a teardown must attempt every step
// even when the body already failed.
func (a *App) runTest(ctx context.Context, cfg *Config, test *hcl.Test) result.Status {
	a.logger.Info("▶️ Test started.", "name", test.Name)
	sess := session.New(a.logger, vars.NewScope(), a.registry, session.WithDryRun(cfg.DryRun))

	err := engine.NewRunner(test.Templated || cfg.Templated).Run(ctx, sess, test.Body)
	if err != nil {
		a.logger.Error("Test body failed.", "name", test.Name, "error", err.Error())
	}

	if len(test.Teardown) > 0 {
		sess.SetInTeardown(true)
		if tdErr := engine.NewRunner(false).Run(ctx, sess, test.Teardown); tdErr != nil {
			a.logger.Error("Test teardown failed.", "name", test.Name, "error", tdErr.Error())
			if err == nil {
				err = tdErr
			}
		}
		sess.SetInTeardown(false)
	}

	status := result.Pass
	if err != nil {
		status = result.Fail
	}
	a.logger.Info("⏹️ Test ended.", "name", test.Name, "status", string(status),
		"timeout_occurred", sess.TimeoutOccurred())
	return status
}
