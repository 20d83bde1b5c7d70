package harness

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/c2-harness/internal/codec2"
	"github.com/conn-castle/c2-harness/internal/codec2/codec2test"
	"github.com/conn-castle/c2-harness/internal/config"
	"github.com/conn-castle/c2-harness/internal/device"
	"github.com/conn-castle/c2-harness/internal/device/devicetest"
	"github.com/conn-castle/c2-harness/internal/service"
	"github.com/conn-castle/c2-harness/internal/snapshot"
)

const (
	storeConf  = "/vendor/etc/mfx_c2_store.conf"
	videoXML   = "/vendor/etc/media_codecs_intel_c2_video.xml"
	manifest   = "/vendor/etc/vintf/manifest.xml"
	matrix     = "/vendor/etc/vintf/compatibility_matrix.xml"
	manifestV0 = "<manifest version=\"1.0\" type=\"device\">\n</manifest>\n"
	matrixV0   = "<compatibility-matrix version=\"1.0\" type=\"device\">\n</compatibility-matrix>\n"
)

type fixture struct {
	cfg   *config.Config
	dev   *devicetest.Fake
	store *snapshot.Store
	out   *bytes.Buffer
	env   *Environment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg, err := config.LoadDefaults()
	require.NoError(t, err)
	dev := devicetest.New()
	dev.SetFile(storeConf, "installed store")
	dev.SetFile(videoXML, "installed xml")
	dev.SetFile("./service/mfx_c2_store.conf", "test store")
	dev.SetFile("./service/media_codecs_intel_c2_video.xml", "test xml")
	dev.SetFile(manifest, manifestV0)
	dev.SetFile(matrix, matrixV0)
	store, err := snapshot.NewStore(filepath.Join(t.TempDir(), "snapshots"))
	require.NoError(t, err)
	noSleep := func(context.Context, time.Duration) error { return nil }
	manager := service.New(dev, cfg.Service, cfg.Registry, noSleep)
	out := &bytes.Buffer{}
	return &fixture{cfg: cfg, dev: dev, store: store, out: out, env: NewEnvironment(cfg, dev, store, manager, out)}
}

// another returns a second Environment over the same device and store, as a
// later c2h invocation would build.
func (f *fixture) another(out io.Writer) *Environment {
	noSleep := func(context.Context, time.Duration) error { return nil }
	return NewEnvironment(f.cfg, f.dev, f.store, service.New(f.dev, f.cfg.Service, f.cfg.Registry, noSleep), out)
}

func TestSetUpAndTearDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.env.SetUp(ctx))

	content, _ := f.dev.File(storeConf)
	assert.Equal(t, "test store", content)
	content, _ = f.dev.File(videoXML)
	assert.Equal(t, "test xml", content)
	content, _ = f.dev.File(manifest)
	assert.Contains(t, content, "<fqname>@1.0::IComponentStore/default</fqname>")
	content, _ = f.dev.File(matrix)
	assert.Contains(t, content, "<instance>software</instance>")

	assert.Equal(t, []string{
		"stop hardware-intel-media-c2-hal-1-0",
		"kill -INT $(pidof hardware.intel.media.c2@1.0-service)",
		"stat -c %a /vendor/etc/mfx_c2_store.conf",
		"stat -c %a /vendor/etc/media_codecs_intel_c2_video.xml",
		"stop hwservicemanager; start hwservicemanager",
		"stop vendor.gralloc-2-0; start vendor.gralloc-2-0",
		"LD_LIBRARY_PATH=./service:/system/lib/vndk-29 ./service/hardware.intel.media.c2@1.0-service >/dev/null 2>&1 &",
	}, f.dev.Scripts())
	require.NotNil(t, f.env.Snapshot())
	assert.Equal(t, []string{storeConf, videoXML}, f.env.Snapshot().Paths())

	require.NoError(t, f.env.TearDown(ctx))
	content, _ = f.dev.File(storeConf)
	assert.Equal(t, "installed store", content)
	content, _ = f.dev.File(videoXML)
	assert.Equal(t, "installed xml", content)
	content, _ = f.dev.File(manifest)
	assert.Contains(t, content, "android.hardware.media.c2", "vintf grant is kept by default")

	scripts := f.dev.Scripts()
	assert.Equal(t, []string{
		"kill -INT $(pidof hardware.intel.media.c2@1.0-service)",
		"start hardware-intel-media-c2-hal-1-0",
	}, scripts[len(scripts)-2:])

	stored, err := f.store.Latest()
	require.NoError(t, err)
	assert.Equal(t, snapshot.StatusRestored, stored.Status)
}

func TestSetUpSkipsRegistryRestartWhenGranted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.env.SetUp(ctx))

	second := f.another(nil)
	before := len(f.dev.Scripts())
	require.NoError(t, second.SetUp(ctx))
	for _, script := range f.dev.Scripts()[before:] {
		assert.NotContains(t, script, "hwservicemanager")
	}
}

func TestSetUpRestoreVINTF(t *testing.T) {
	f := newFixture(t)
	f.cfg.VINTF.RestoreOnTeardown = true
	ctx := context.Background()

	require.NoError(t, f.env.SetUp(ctx))
	assert.Equal(t, []string{storeConf, videoXML, manifest, matrix}, f.env.Snapshot().Paths())

	before := len(f.dev.Scripts())
	require.NoError(t, f.env.TearDown(ctx))
	content, _ := f.dev.File(manifest)
	assert.Equal(t, manifestV0, content)
	assert.Contains(t, f.dev.Scripts()[before:], "stop hwservicemanager; start hwservicemanager")
}

func TestSetUpFailures(t *testing.T) {
	t.Run("missing overlay source", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.dev.Remove(context.Background(), "./service/mfx_c2_store.conf"))
		err := f.env.SetUp(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, device.ErrNotFound))
		assert.Contains(t, err.Error(), "prepare conf file "+storeConf)
	})
	t.Run("missing manifest", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.dev.Remove(context.Background(), manifest))
		err := f.env.SetUp(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "enable vendor interface")
	})
	t.Run("launch exit status", func(t *testing.T) {
		f := newFixture(t)
		f.dev.RespondPrefix("LD_LIBRARY_PATH=", device.Result{ExitCode: 1})
		err := f.env.SetUp(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, service.ErrLaunchFailed))
	})
}

func TestSetUpContinuesPastCompanionRestartFailure(t *testing.T) {
	f := newFixture(t)
	f.dev.RespondPrefix("stop vendor.gralloc-2-0", device.Result{ExitCode: 1, Stderr: "no such service"})

	require.NoError(t, f.env.SetUp(context.Background()))
	scripts := f.dev.Scripts()
	assert.Equal(t, "LD_LIBRARY_PATH=./service:/system/lib/vndk-29 ./service/hardware.intel.media.c2@1.0-service >/dev/null 2>&1 &", scripts[len(scripts)-1])
	assert.Contains(t, f.out.String(), "warning: restart vendor.gralloc-2-0")
	assert.Contains(t, f.out.String(), "no such service")
}

func TestSetUpLeavesFileWithoutEndTag(t *testing.T) {
	f := newFixture(t)
	broken := "<compatibility-matrix version=\"1.0\" type=\"device\">\n"
	f.dev.SetFile(matrix, broken)

	require.NoError(t, f.env.SetUp(context.Background()))
	content, _ := f.dev.File(matrix)
	assert.Equal(t, broken, content)
	content, _ = f.dev.File(manifest)
	assert.Contains(t, content, "android.hardware.media.c2")
	assert.Contains(t, f.out.String(), "warning: vintf "+matrix+" has no </compatibility-matrix>; left unchanged")
	scripts := f.dev.Scripts()
	assert.Contains(t, scripts[len(scripts)-1], "LD_LIBRARY_PATH=")
}

func TestRunAfterFailedCaptureLeavesDeviceFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.env.SetUp(ctx))
	require.NoError(t, f.env.TearDown(ctx))

	f.dev.SetFile(storeConf, "installed store v2")
	f.dev.FailRead(storeConf, errors.New("permission denied"))
	out := &bytes.Buffer{}

	summary := Run(ctx, f.another(out), nil, nil)
	require.Error(t, summary.SetUpErr)
	assert.Contains(t, summary.SetUpErr.Error(), "permission denied")
	require.NoError(t, summary.TearDownErr)
	content, _ := f.dev.File(storeConf)
	assert.Equal(t, "installed store v2", content)
	assert.Contains(t, out.String(), "no snapshot taken")
	assert.Contains(t, f.dev.Scripts(), "start hardware-intel-media-c2-hal-1-0")
}

func TestRecoverLatestRestoresUnrestoredSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.env.SetUp(ctx))

	require.NoError(t, f.another(nil).RecoverLatest().TearDown(ctx))
	content, _ := f.dev.File(storeConf)
	assert.Equal(t, "installed store", content)
	stored, err := f.store.Latest()
	require.NoError(t, err)
	assert.Equal(t, snapshot.StatusRestored, stored.Status)
}

func TestRecoverLatestSkipsRestoredSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.env.SetUp(ctx))
	require.NoError(t, f.env.TearDown(ctx))
	f.dev.SetFile(storeConf, "installed store v2")
	out := &bytes.Buffer{}

	require.NoError(t, f.another(out).RecoverLatest().TearDown(ctx))
	content, _ := f.dev.File(storeConf)
	assert.Equal(t, "installed store v2", content)
	assert.Contains(t, out.String(), "is restored; nothing to restore")
}

func TestRecoverLatestWithoutSnapshotStillRestartsService(t *testing.T) {
	f := newFixture(t)
	err := f.env.RecoverLatest().TearDown(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, snapshot.ErrNoSnapshots))
	assert.Equal(t, []string{
		"kill -INT $(pidof hardware.intel.media.c2@1.0-service)",
		"start hardware-intel-media-c2-hal-1-0",
	}, f.dev.Scripts())
}

func TestTearDownWithoutSnapshotRestoresNothing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.env.TearDown(context.Background()))
	assert.Equal(t, []string{
		"kill -INT $(pidof hardware.intel.media.c2@1.0-service)",
		"start hardware-intel-media-c2-hal-1-0",
	}, f.dev.Scripts())
}

func TestChecksPass(t *testing.T) {
	table := codec2.Table{
		{Name: "c2.intel.avc.decoder", Status: codec2.OK},
		{Name: "c2.intel.hevc.encoder", Status: codec2.OK},
	}
	store := codec2test.NewStore(table.Names()...)
	suite := &Suite{Connector: store, Instance: "default", Components: table}

	results := RunChecks(context.Background(), suite.Checks(), nil)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, StatusPass, r.Status, "%s: %v", r.Check, r.Failures)
	}
	assert.Equal(t, []string{
		"c2.intel.avc.decoder", "c2.intel.hevc.encoder",
		"c2.intel.avc.decoder", "c2.intel.hevc.encoder",
	}, store.Created())
}

func TestChecksExpectedFailureStatus(t *testing.T) {
	table := codec2.Table{
		{Name: "c2.intel.avc.decoder", Status: codec2.OK},
		{Name: "c2.intel.av1.decoder", Status: codec2.NotFound},
	}
	store := codec2test.NewStore("c2.intel.avc.decoder")
	suite := &Suite{Connector: store, Instance: "default", Components: table}

	results := RunChecks(context.Background(), suite.Checks(), nil)
	assert.Equal(t, StatusPass, results[0].Status)
	assert.Equal(t, StatusFail, results[1].Status)
	assert.Equal(t, []string{"component count: got 1, want 2"}, results[1].Failures)
	assert.Equal(t, StatusPass, results[2].Status)
	assert.Equal(t, StatusPass, results[3].Status)
}

func TestChecksExpectFailuresContinue(t *testing.T) {
	table := codec2.Table{
		{Name: "a", Status: codec2.OK},
		{Name: "b", Status: codec2.OK},
		{Name: "c", Status: codec2.OK},
	}
	store := codec2test.NewStore("a", "b", "c", "extra")
	store.Statuses = map[string]codec2.Status{"a": codec2.Refused}
	store.Names = map[string]string{"b": "renamed"}
	suite := &Suite{Connector: store, Instance: "default", Components: table}

	results := RunChecks(context.Background(), suite.Checks(), nil)
	assert.Equal(t, []string{
		"component count: got 4, want 3",
		`unexpected component "extra"`,
	}, results[1].Failures)
	assert.Equal(t, []string{
		`createComponent "a": status C2_REFUSED, want C2_OK`,
		`createComponent "a": handle is null`,
		`createComponent "b": handle reports name "renamed"`,
	}, results[2].Failures)
	assert.Len(t, results[3].Failures, 3)
}

func TestChecksAssertAbortsOnlyThatCheck(t *testing.T) {
	store := codec2test.NewStore("a")
	store.ConnectErr = codec2.ErrUnavailable
	suite := &Suite{Connector: store, Instance: "default", Components: codec2.Table{{Name: "a"}}}

	results := RunChecks(context.Background(), suite.Checks(), nil)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, StatusFail, r.Status)
		require.Len(t, r.Failures, 1, r.Check)
		assert.Contains(t, r.Failures[0], "codec2 store unavailable")
	}
	assert.Empty(t, store.Created())
	assert.Equal(t, 4, store.Connects())
}

type nilConnector struct{}

func (nilConnector) Connect(context.Context, string) (codec2.Client, error) {
	return nil, nil
}

func TestChecksNilClient(t *testing.T) {
	suite := &Suite{Connector: nilConnector{}, Instance: "default", Components: codec2.Table{{Name: "a"}}}

	results := RunChecks(context.Background(), suite.Checks(), nil)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, StatusFail, r.Status)
		assert.Equal(t, []string{`connect to instance "default": client is null`}, r.Failures, r.Check)
	}
}

func TestGetComponentsListError(t *testing.T) {
	store := codec2test.NewStore("a")
	store.ListErr = errors.New("transaction failed")
	suite := &Suite{Connector: store, Instance: "default", Components: codec2.Table{{Name: "a"}}}

	results := RunChecks(context.Background(), suite.Checks()[1:2], nil)
	assert.Equal(t, []string{"list components: transaction failed"}, results[0].Failures)
}

func TestRunCheckRecoversPanic(t *testing.T) {
	result := runCheck(context.Background(), Check{Name: "boom", Run: func(*T) { panic("bad") }})
	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, []string{"panic: bad"}, result.Failures)
}

func TestFatalfStopsCheck(t *testing.T) {
	reached := false
	result := runCheck(context.Background(), Check{Name: "fatal", Run: func(t *T) {
		t.Errorf("first")
		t.Fatalf("second %d", 2)
		reached = true
	}})
	assert.False(t, reached)
	assert.Equal(t, []string{"first", "second 2"}, result.Failures)
}

func TestSelectChecks(t *testing.T) {
	checks := (&Suite{}).Checks()

	all, err := SelectChecks(checks, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	create, err := SelectChecks(checks, "create*")
	require.NoError(t, err)
	assert.Equal(t, []string{CheckCreateComponent, CheckCreateInterface}, names(create))

	two, err := SelectChecks(checks, "Start:getComponents")
	require.NoError(t, err)
	assert.Equal(t, []string{CheckStart, CheckGetComponents}, names(two))

	_, err = SelectChecks(checks, "nothing")
	assert.Error(t, err)
	_, err = SelectChecks(checks, "[")
	assert.Error(t, err)
}

type phasesStub struct {
	setUpErr    error
	tearDownCtx context.Context
	calls       []string
}

func (p *phasesStub) SetUp(context.Context) error {
	p.calls = append(p.calls, "setup")
	return p.setUpErr
}

func (p *phasesStub) TearDown(ctx context.Context) error {
	p.calls = append(p.calls, "teardown")
	p.tearDownCtx = ctx
	return nil
}

type observerStub struct {
	started  []string
	finished []Result
}

func (o *observerStub) CheckStarted(name string)    { o.started = append(o.started, name) }
func (o *observerStub) CheckFinished(result Result) { o.finished = append(o.finished, result) }

func TestRunSkipsChecksWhenSetUpFails(t *testing.T) {
	phases := &phasesStub{setUpErr: errors.New("launch failed")}
	obs := &observerStub{}
	ran := false
	checks := []Check{{Name: "a", Run: func(*T) { ran = true }}}

	summary := Run(context.Background(), phases, checks, obs)
	assert.False(t, ran)
	assert.False(t, summary.Passed())
	assert.Equal(t, []string{"setup", "teardown"}, phases.calls)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, StatusSkip, summary.Results[0].Status)
	assert.Empty(t, obs.started)
	assert.Len(t, obs.finished, 1)
	assert.Equal(t, 1, summary.Count(StatusSkip))
}

func TestRunTearDownSurvivesCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	phases := &phasesStub{}
	checks := []Check{
		{Name: "a", Run: func(*T) { cancel() }},
		{Name: "b", Run: func(*T) {}},
	}

	summary := Run(ctx, phases, checks, nil)
	assert.Equal(t, StatusPass, summary.Results[0].Status)
	assert.Equal(t, StatusSkip, summary.Results[1].Status)
	require.NotNil(t, phases.tearDownCtx)
	assert.NoError(t, phases.tearDownCtx.Err())
	assert.True(t, summary.Passed())
}

func names(checks []Check) []string {
	out := make([]string, 0, len(checks))
	for _, c := range checks {
		out = append(out, c.Name)
	}
	return out
}
