package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscquery/oscquery-go/pkg/model"
	"github.com/oscquery/oscquery-go/pkg/tree"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		raw     string
		want    Request
		wantErr error
	}{
		{raw: "", want: Request{}},
		{raw: "VALUE", want: Request{Param: ParamValue}},
		{raw: "TYPE", want: Request{Param: ParamType}},
		{raw: "RANGE", want: Request{Param: ParamRange}},
		{raw: "CLIPMODE", want: Request{Param: ParamClipMode}},
		{raw: "ACCESS", want: Request{Param: ParamAccess}},
		{raw: "DESCRIPTION", want: Request{Param: ParamDescription}},
		{raw: "UNIT", want: Request{Param: ParamUnit}},
		{raw: "HOST_INFO", want: Request{HostInfo: true}},
		{raw: "VALUE&TYPE", wantErr: ErrBadRequest},
		{raw: "VALUE=1", wantErr: ErrBadRequest},
		{raw: "COLOR", wantErr: ErrBadRequest},
		{raw: "value", wantErr: ErrBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseQuery(tc.raw)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("ParseQuery(%q) err = %v, want %v", tc.raw, err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQuery(%q): %v", tc.raw, err)
			}
			if got != tc.want {
				t.Errorf("ParseQuery(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestParamKeyRoundTrip(t *testing.T) {
	for _, p := range []Param{ParamValue, ParamType, ParamRange, ParamClipMode, ParamAccess, ParamDescription, ParamUnit} {
		got, err := ParseParam(p.Key())
		if err != nil || got != p {
			t.Errorf("ParseParam(%q) = %v, %v", p.Key(), got, err)
		}
	}
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	coord := tree.NewCoordinator(tree.New(), nil)
	t.Cleanup(coord.Close)

	insert := func(path string, spec tree.Spec) {
		_, err := coord.Submit(context.Background(), tree.Edit{
			Kind: tree.EditInsert, Origin: tree.OriginHost, Path: path, Spec: spec,
		})
		require.NoError(t, err, path)
	}

	insert("/synth", tree.Container("a synthesizer"))
	insert("/synth/freq", tree.Spec{
		Access:      model.AccessReadWrite,
		Description: "oscillator frequency",
		Values:      []model.Value{model.Float32(440)},
		Slots: []model.Slot{{
			Range: model.MinMax(20, 20000),
			Clip:  model.ClipBoth,
			Unit:  "frequency.hz",
		}},
	})
	insert("/synth/label", tree.Spec{
		Access: model.AccessReadWrite,
		Values: []model.Value{model.String("saw")},
	})
	insert("/synth/gate", tree.Spec{
		Access: model.AccessWriteOnly,
		Values: []model.Value{model.Bool(false)},
	})
	return NewResolver(coord)
}

func TestQueryFullObject(t *testing.T) {
	r := newTestResolver(t)

	got, err := r.Query("/synth/freq", ParamNone)
	require.NoError(t, err)
	assert.Equal(t, "/synth/freq", got["FULL_PATH"])
	assert.Equal(t, 3, got["ACCESS"])
	assert.Equal(t, "oscillator frequency", got["DESCRIPTION"])
	assert.Equal(t, "f", got["TYPE"])
	assert.Equal(t, []any{float32(440)}, got["VALUE"])
	assert.Equal(t, []any{"both"}, got["CLIPMODE"])
	assert.Equal(t, []any{"frequency.hz"}, got["UNIT"])

	ranges, ok := got["RANGE"].([]any)
	require.True(t, ok)
	require.Len(t, ranges, 1)
	assert.Equal(t, map[string]any{"MIN": float64(20), "MAX": float64(20000)}, ranges[0])

	_, hasContents := got["CONTENTS"]
	assert.False(t, hasContents, "leaf must not carry CONTENTS")
}

func TestQueryContainerContents(t *testing.T) {
	r := newTestResolver(t)

	got, err := r.Query("/", ParamNone)
	require.NoError(t, err)
	assert.Equal(t, "/", got["FULL_PATH"])
	assert.Equal(t, 0, got["ACCESS"])

	contents, ok := got["CONTENTS"].(map[string]any)
	require.True(t, ok)
	synth, ok := contents["synth"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/synth", synth["FULL_PATH"])
	assert.Equal(t, "a synthesizer", synth["DESCRIPTION"])

	// One level only: the child container is summarized without its
	// own CONTENTS.
	_, deep := synth["CONTENTS"]
	assert.False(t, deep)
}

func TestQuerySingleParams(t *testing.T) {
	r := newTestResolver(t)

	got, err := r.Query("/synth/freq", ParamValue)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"VALUE": []any{float32(440)}}, got)

	got, err = r.Query("/synth/freq", ParamType)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"TYPE": "f"}, got)

	got, err = r.Query("/synth/freq", ParamAccess)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ACCESS": 3}, got)

	got, err = r.Query("/synth/freq", ParamClipMode)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"CLIPMODE": []any{"both"}}, got)

	got, err = r.Query("/synth", ParamDescription)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"DESCRIPTION": "a synthesizer"}, got)
}

func TestQueryErrors(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.Query("/nonexistent", ParamNone)
	assert.ErrorIs(t, err, tree.ErrNotFound)

	// Value attributes on a container.
	for _, p := range []Param{ParamValue, ParamType, ParamRange, ParamClipMode, ParamUnit} {
		_, err = r.Query("/synth", p)
		assert.ErrorIs(t, err, ErrUnsupportedParam, p.Key())
	}

	// RANGE and UNIT on a node without slot metadata.
	_, err = r.Query("/synth/label", ParamRange)
	assert.ErrorIs(t, err, ErrUnsupportedParam)
	_, err = r.Query("/synth/label", ParamUnit)
	assert.ErrorIs(t, err, ErrUnsupportedParam)

	// DESCRIPTION on a node without one.
	_, err = r.Query("/synth/label", ParamDescription)
	assert.ErrorIs(t, err, ErrUnsupportedParam)

	// VALUE of a write-only node.
	_, err = r.Query("/synth/gate", ParamValue)
	assert.ErrorIs(t, err, tree.ErrAccess)
}

func TestQueryValueAfterClippedSet(t *testing.T) {
	coord := tree.NewCoordinator(tree.New(), nil)
	t.Cleanup(coord.Close)
	_, err := coord.Submit(context.Background(), tree.Edit{
		Kind: tree.EditInsert, Origin: tree.OriginHost, Path: "/synth/freq",
		Spec: tree.Spec{
			Access: model.AccessReadWrite,
			Values: []model.Value{model.Float32(440)},
			Slots:  []model.Slot{{Range: model.MinMax(20, 20000), Clip: model.ClipBoth}},
		},
	})
	require.NoError(t, err)
	_, err = coord.Submit(context.Background(), tree.Edit{
		Kind: tree.EditSet, Origin: tree.OriginNetwork, Path: "/synth/freq",
		Values: []model.Value{model.Float32(30000)},
	})
	require.NoError(t, err)

	got, err := NewResolver(coord).Query("/synth/freq", ParamValue)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"VALUE": []any{float32(20000)}}, got)
}

func TestHostInfoJSON(t *testing.T) {
	h := HostInfo{
		Name:    "demo",
		OSCIP:   "10.0.0.2",
		OSCPort: 9000,
		WSIP:    "10.0.0.2",
		WSPort:  8080,
	}
	got := h.JSON()
	assert.Equal(t, "demo", got["NAME"])
	assert.Equal(t, "UDP", got["OSC_TRANSPORT"])
	assert.Equal(t, 9000, got["OSC_PORT"])
	assert.Equal(t, 8080, got["WS_PORT"])

	ext, ok := got["EXTENSIONS"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, ext["VALUE"])
	assert.Equal(t, true, ext["LISTEN"])
	assert.Equal(t, true, ext["PATH_CHANGED"])
	assert.Equal(t, false, ext["HTML"])

	// No WS transport: streaming extensions off, WS keys absent.
	got = HostInfo{Name: "demo", OSCIP: "10.0.0.2", OSCPort: 9000}.JSON()
	_, hasWS := got["WS_PORT"]
	assert.False(t, hasWS)
	ext = got["EXTENSIONS"].(map[string]any)
	assert.Equal(t, false, ext["LISTEN"])
}
