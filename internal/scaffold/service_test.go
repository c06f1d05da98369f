package scaffold

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kris-hansen/sitekit/internal/addons"
	"github.com/kris-hansen/sitekit/internal/config"
	"github.com/kris-hansen/sitekit/internal/logging"
	"github.com/kris-hansen/sitekit/internal/template"
	"github.com/kris-hansen/sitekit/internal/vcs"
)

type fakeRepo struct {
	commitErr error
	staged    []string
	messages  []string
}

func (f *fakeRepo) Add(ctx context.Context, paths ...string) error {
	f.staged = append(f.staged, paths...)
	return nil
}

func (f *fakeRepo) Commit(ctx context.Context, message string) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeRepo) Head(ctx context.Context) (string, error) {
	return "0123abcd", nil
}

type fakeProvisioner struct {
	calls     []string
	redisErr  error
	relicErr  error
	projects  []addons.ProjectRequest
}

func (f *fakeProvisioner) EnableRedis(ctx context.Context, site string) error {
	f.calls = append(f.calls, "redis:"+site)
	return f.redisErr
}

func (f *fakeProvisioner) EnableNewRelic(ctx context.Context, site string) error {
	f.calls = append(f.calls, "new-relic:"+site)
	return f.relicErr
}

func (f *fakeProvisioner) CreateProject(ctx context.Context, req addons.ProjectRequest) error {
	f.projects = append(f.projects, req)
	return nil
}

type memJournal struct {
	records map[string][]config.Record
}

func (j *memJournal) Append(project string, rec config.Record) error {
	if j.records == nil {
		j.records = make(map[string][]config.Record)
	}
	j.records[project] = append(j.records[project], rec)
	return nil
}

type fixture struct {
	fs      afero.Fs
	repo    *fakeRepo
	prov    *fakeProvisioner
	journal *memJournal
	out     *bytes.Buffer
	svc     *Service
}

func newFixture(t *testing.T, fs afero.Fs) *fixture {
	t.Helper()
	m := template.NewMaterializer(fs)
	f := &fixture{
		fs:      fs,
		repo:    &fakeRepo{},
		prov:    &fakeProvisioner{},
		journal: &memJournal{},
		out:     &bytes.Buffer{},
	}
	f.svc = NewService(Deps{
		Materializer: m,
		Recorder:     vcs.NewRecorder(f.repo, m),
		Provisioner:  f.prov,
		Journal:      f.journal,
		Log:          logging.Nop(),
		Out:          f.out,
	})
	f.svc.now = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }
	return f
}

func TestRun_LandoSetup(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "template.lando.yml", []byte("name: %SITE_NAME%\nrecipe: pantheon\n"), 0644))
	f := newFixture(t, fs)

	err := f.svc.Run(context.Background(), LandoSetup, Request{Dir: "/srv/mysite", Site: "mysite"})
	require.NoError(t, err)

	out, err := afero.ReadFile(fs, ".lando.yml")
	require.NoError(t, err)
	assert.Equal(t, "name: mysite\nrecipe: pantheon\n", string(out))

	exists, _ := afero.Exists(fs, "template.lando.yml")
	assert.False(t, exists)

	assert.Equal(t, []string{".lando.yml"}, f.repo.staged)
	assert.Equal(t, []string{"Added .lando.yml local development environment configuration."}, f.repo.messages)

	recs := f.journal.records["/srv/mysite"]
	require.Len(t, recs, 1)
	assert.Equal(t, "build:lando:setup", recs[0].Operation)
	assert.Equal(t, "0123abcd", recs[0].Commit)
	assert.Equal(t, "mysite", recs[0].Site)

	assert.Contains(t, f.out.String(), `lando start`)
}

func TestRun_BehatSetup(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ".ci/test/template.behat-lando.yml", []byte("base_url: https://%SITE_NAME%.lndo.site\n"), 0644))
	f := newFixture(t, fs)

	require.NoError(t, f.svc.Run(context.Background(), BehatSetup, Request{Site: "demo"}))

	out, err := afero.ReadFile(fs, "tests/behat/behat-lando.yml")
	require.NoError(t, err)
	assert.Equal(t, "base_url: https://demo.lndo.site\n", string(out))

	exists, _ := afero.Exists(fs, ".ci/test/template.behat-lando.yml")
	assert.False(t, exists)
	assert.Equal(t, []string{"Added tests/behat/behat-lando.yml local behat testing configuration."}, f.repo.messages)
	assert.Empty(t, f.journal.records, "no project dir, no journal entry")
}

func TestRun_MissingTemplateDoesNothing(t *testing.T) {
	f := newFixture(t, afero.NewMemMapFs())

	require.NoError(t, f.svc.Run(context.Background(), LandoSetup, Request{Dir: "/srv/x", Site: "x"}))

	exists, _ := afero.Exists(f.fs, ".lando.yml")
	assert.False(t, exists)
	assert.Empty(t, f.repo.staged)
	assert.Empty(t, f.journal.records)
	assert.Empty(t, f.out.String())
}

func TestRun_CopyFailureSkipsCommit(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "template.lando.yml", []byte("name: %SITE_NAME%"), 0644))
	f := newFixture(t, afero.NewReadOnlyFs(base))

	err := f.svc.Run(context.Background(), LandoSetup, Request{Site: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, template.ErrCopy))
	assert.Empty(t, f.repo.staged)

	exists, _ := afero.Exists(base, "template.lando.yml")
	assert.True(t, exists)
}

func TestRun_CommitFailureKeepsTemplate(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "template.lando.yml", []byte("name: %SITE_NAME%"), 0644))
	f := newFixture(t, fs)
	f.repo.commitErr = errors.New("nothing added to commit")

	err := f.svc.Run(context.Background(), LandoSetup, Request{Dir: "/srv/x", Site: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, vcs.ErrCommit))

	exists, _ := afero.Exists(fs, "template.lando.yml")
	assert.True(t, exists)
	assert.Empty(t, f.journal.records)
}

func TestRun_RequiresSite(t *testing.T) {
	f := newFixture(t, afero.NewMemMapFs())
	err := f.svc.Run(context.Background(), LandoSetup, Request{})
	assert.True(t, errors.Is(err, ErrMissingSite))
}

func TestEnableAddOns_OrderAndSite(t *testing.T) {
	f := newFixture(t, afero.NewMemMapFs())

	require.NoError(t, f.svc.EnableAddOns(context.Background(), Request{Site: "mysite"}))
	assert.Equal(t, []string{"redis:mysite", "new-relic:mysite"}, f.prov.calls)
}

func TestEnableAddOns_FailureDoesNotStopSecondCall(t *testing.T) {
	f := newFixture(t, afero.NewMemMapFs())
	f.prov.redisErr = errors.New("exit status 1")

	err := f.svc.EnableAddOns(context.Background(), Request{Site: "mysite"})
	assert.Error(t, err)
	assert.Equal(t, []string{"redis:mysite", "new-relic:mysite"}, f.prov.calls)
	assert.Contains(t, f.out.String(), "New Relic enabled on mysite")
}

func TestProjectDefaults(t *testing.T) {
	tests := []struct {
		name   string
		opts   map[string]string
		wantCI string
	}{
		{"empty uses recommended", map[string]string{}, config.DefaultCITemplate},
		{"stock is replaced", map[string]string{"ci-template": "git@github.com:pantheon-systems/tbt-ci-templates.git"}, config.DefaultCITemplate},
		{"custom is kept", map[string]string{"ci-template": "git@github.com:acme/ci.git"}, "git@github.com:acme/ci.git"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr := ProjectDefaults("src", "", tt.opts, config.UpstreamCITemplate, config.DefaultCITemplate)
			assert.Equal(t, tt.wantCI, pr.CITemplate)
			assert.True(t, pr.Keep)
			assert.Equal(t, "private", pr.Visibility)
			assert.Equal(t, "dev", pr.Stability)
		})
	}
}

func TestProjectDefaults_ForcesManagedOptions(t *testing.T) {
	pr := ProjectDefaults("src", "target", map[string]string{
		"visibility": "public",
		"stability":  "stable",
		"team":       "acme",
	}, config.UpstreamCITemplate, config.DefaultCITemplate)

	assert.Equal(t, "private", pr.Visibility)
	assert.Equal(t, "dev", pr.Stability)
	assert.Equal(t, map[string]string{"team": "acme"}, pr.Extra)
	assert.Equal(t, "target", pr.Target)
}

func TestCreateProject(t *testing.T) {
	f := newFixture(t, afero.NewMemMapFs())

	err := f.svc.CreateProject(context.Background(), Request{
		Args:    []string{"pantheon-systems/example-wordpress-composer", "my-site"},
		Options: map[string]string{"ci-template": "git@github.com:pantheon-systems/tbt-ci-templates.git"},
	})
	require.NoError(t, err)
	require.Len(t, f.prov.projects, 1)
	assert.Equal(t, "my-site", f.prov.projects[0].Target)
	assert.Equal(t, config.DefaultCITemplate, f.prov.projects[0].CITemplate)
}
