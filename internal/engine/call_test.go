package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/keywordgo/internal/engine"
	"github.com/vk/keywordgo/internal/flow"
	"github.com/vk/keywordgo/internal/keyword"
	"github.com/vk/keywordgo/internal/registry"
	"github.com/vk/keywordgo/internal/result"
	"github.com/vk/keywordgo/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

func runOne(t *testing.T, ec *testutil.Context, item keyword.Item) error {
	t.Helper()
	_, err := engine.NewRunner(false).RunItem(testutil.Ctx(), ec, item, "")
	return err
}

func TestCallNotifiesStartAndEndExactlyOnce(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.RegisterKeyword("Ping", func(context.Context, engine.Context, []string) (cty.Value, error) {
		return cty.NilVal, nil
	})

	require.NoError(t, runOne(t, ec, call("Ping")))

	starts := ec.ByKind("start")
	ends := ec.ByKind("end")
	require.Len(t, starts, 1)
	require.Len(t, ends, 1)
	assert.Equal(t, "Ping", starts[0].Name)
	assert.Equal(t, result.NotRun, starts[0].Status)
	assert.Equal(t, result.Pass, ends[0].Status)
	assert.True(t, ends[0].EndTimeSet)
}

func TestCallUnknownKeyword(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()

	err := runOne(t, ec, call("No Such Keyword"))

	require.Error(t, err)
	assert.Equal(t, "No keyword with name 'No Such Keyword' found.", err.Error())
	// Lookup fails before a result record exists, so no hooks fire.
	assert.Empty(t, ec.Events)
}

func TestCallHandlerErrorIsReportedAndFailsRecord(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.RegisterKeyword("Broken", func(context.Context, engine.Context, []string) (cty.Value, error) {
		return cty.NilVal, fmt.Errorf("connection refused")
	})

	err := runOne(t, ec, call("Broken"))

	require.Error(t, err)
	assert.Equal(t, "connection refused", err.Error())
	fails := ec.ByKind("fail")
	require.Len(t, fails, 1)
	assert.Equal(t, "connection refused", fails[0].Message)
	ends := ec.ByKind("end")
	require.Len(t, ends, 1)
	assert.Equal(t, result.Fail, ends[0].Status)
	assert.True(t, ends[0].EndTimeSet)
}

func TestCallRecoversHandlerPanic(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.RegisterKeyword("Panics", func(context.Context, engine.Context, []string) (cty.Value, error) {
		panic("index out of range")
	})

	err := runOne(t, ec, call("Panics"))

	require.Error(t, err)
	assert.Equal(t, "index out of range", err.Error())
	var failed *flow.Failed
	require.True(t, errors.As(err, &failed))
	assert.NotEmpty(t, failed.Traceback)

	// The traceback lands in the debug stream, the end hook still fires.
	require.NotEmpty(t, ec.ByKind("debug"))
	ends := ec.ByKind("end")
	require.Len(t, ends, 1)
	assert.Equal(t, result.Fail, ends[0].Status)
	assert.True(t, ends[0].EndTimeSet)
}

func TestCallTimeoutIsNoted(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.RegisterKeyword("Slow", func(context.Context, engine.Context, []string) (cty.Value, error) {
		return cty.NilVal, fmt.Errorf("waiting for reply: %w", context.DeadlineExceeded)
	})

	err := runOne(t, ec, call("Slow"))

	require.Error(t, err)
	assert.True(t, ec.TimeoutNoted)
	var failed *flow.Failed
	require.True(t, errors.As(err, &failed))
	assert.True(t, failed.Timeout)
}

func TestCallDeprecationWarning(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.Registry.RegisterKeyword(registry.Keyword{
		Name:    "Old Way",
		Library: "Legacy",
		Doc:     "*DEPRECATED* Use New Way instead.",
		Fn: func(context.Context, engine.Context, []string) (cty.Value, error) {
			return cty.NilVal, nil
		},
	})

	require.NoError(t, runOne(t, ec, call("Old Way")))

	warns := ec.ByKind("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, "Keyword 'Legacy.Old Way' is deprecated. Use New Way instead.", warns[0].Message)
}

func TestCallNoWarningWithoutClosedMarker(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.Registry.RegisterKeyword(registry.Keyword{
		Name: "Starred",
		Doc:  "*DEPRECATED but the marker never closes",
		Fn: func(context.Context, engine.Context, []string) (cty.Value, error) {
			return cty.NilVal, nil
		},
	})

	require.NoError(t, runOne(t, ec, call("Starred")))
	assert.Empty(t, ec.ByKind("warn"))
}

func TestCallAssignsReturnValue(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.RegisterKeyword("Produce", func(context.Context, engine.Context, []string) (cty.Value, error) {
		return cty.StringVal("produced"), nil
	})

	item := &keyword.Call{Name: "Produce", Assign: []string{"${out} ="}, Type: keyword.TypeKeyword}
	require.NoError(t, runOne(t, ec, item))

	got, ok := ec.Scope.Get("out")
	require.True(t, ok)
	assert.Equal(t, cty.StringVal("produced"), got)
}

func TestCallAssignmentFailureDowngradesToFail(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.RegisterKeyword("Produce", func(context.Context, engine.Context, []string) (cty.Value, error) {
		return cty.StringVal("scalar"), nil
	})

	item := &keyword.Call{
		Name:   "Produce",
		Assign: []string{"${x}", "${y}"},
		Type:   keyword.TypeKeyword,
	}
	err := runOne(t, ec, item)

	require.Error(t, err)
	assert.Equal(t, "Cannot set variables: expected list-like value, got string.", err.Error())
	var failed *flow.Failed
	require.True(t, errors.As(err, &failed))
	assert.True(t, failed.Syntax())

	ends := ec.ByKind("end")
	require.Len(t, ends, 1)
	assert.Equal(t, result.Fail, ends[0].Status)
	assert.True(t, ends[0].EndTimeSet)
}

func TestCallNoAssignmentAfterAbortingFailure(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.RegisterKeyword("Broken", func(context.Context, engine.Context, []string) (cty.Value, error) {
		return cty.NilVal, flow.NewFailure("broke before producing")
	})

	item := &keyword.Call{Name: "Broken", Assign: []string{"${out}"}, Type: keyword.TypeKeyword}
	err := runOne(t, ec, item)

	require.Error(t, err)
	_, ok := ec.Scope.Get("out")
	assert.False(t, ok)
}

func TestCallTeardownFailureAssignsAndKeepsMessage(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.Teardown = true
	ec.RegisterKeyword("Cleanup", func(context.Context, engine.Context, []string) (cty.Value, error) {
		return cty.NilVal, flow.NewFailure("cleanup failed")
	})

	item := &keyword.Call{
		Name:   "Cleanup",
		Assign: []string{"${out}"},
		Type:   keyword.TypeTeardown,
	}
	err := runOne(t, ec, item)

	require.Error(t, err)
	ends := ec.ByKind("end")
	require.Len(t, ends, 1)
	assert.Equal(t, "cleanup failed", ends[0].Message)

	// Continuable failures still assign; the value degrades to null.
	got, ok := ec.Scope.Get("out")
	require.True(t, ok)
	assert.True(t, got.IsNull())
}

func TestCallDryRunSkipsLibraryKeyword(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.Dry = true
	executed := false
	ec.RegisterKeyword("Real Work", func(context.Context, engine.Context, []string) (cty.Value, error) {
		executed = true
		return cty.StringVal("side effect"), nil
	})

	require.NoError(t, runOne(t, ec, call("Real Work")))

	assert.False(t, executed)
	ends := ec.ByKind("end")
	require.Len(t, ends, 1)
	assert.Equal(t, result.NotRun, ends[0].Status)
	assert.True(t, ends[0].EndTimeSet)
}

func TestCallDryRunStillFailsOnUnknownKeyword(t *testing.T) {
	t.Parallel()
	ec := testutil.NewContext()
	ec.Dry = true

	err := runOne(t, ec, call("Ghost"))

	require.Error(t, err)
	assert.Equal(t, "No keyword with name 'Ghost' found.", err.Error())
}
