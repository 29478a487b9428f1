package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Validate(t *testing.T) {
	tests := []struct {
		name    string
		repo    Repository
		wantErr bool
	}{
		{name: "valid", repo: Repository{Owner: "octo", Repo: "demo"}, wantErr: false},
		{name: "missing owner", repo: Repository{Repo: "demo"}, wantErr: true},
		{name: "missing repo", repo: Repository{Owner: "octo"}, wantErr: true},
		{name: "empty", repo: Repository{}, wantErr: true},
		{name: "slash in owner", repo: Repository{Owner: "octo/evil", Repo: "demo"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.repo.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRepository_FullName(t *testing.T) {
	r := Repository{Owner: "octo", Repo: "demo"}
	assert.Equal(t, "octo/demo", r.FullName())
	assert.False(t, r.IsZero())
	assert.True(t, Repository{}.IsZero())
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := "repository:\n  owner: octo\n  repo: demo\nworkers: 8\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	chdir(t, dir)
	t.Setenv("GITHUB_OWNER", "")
	t.Setenv("GITHUB_REPO", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "octo", cfg.Repository.Owner)
	assert.Equal(t, "demo", cfg.Repository.Repo)
	assert.Equal(t, 8, cfg.Workers)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "repository:\n  owner: fileowner\n  repo: filerepo\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	chdir(t, dir)
	t.Setenv("GITHUB_OWNER", "envowner")
	t.Setenv("GITHUB_REPO", "envrepo")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "envowner", cfg.Repository.Owner)
	assert.Equal(t, "envrepo", cfg.Repository.Repo)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GITHUB_OWNER", "")
	t.Setenv("GITHUB_REPO", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Repository.IsZero())
	assert.Equal(t, 5, cfg.Workers)
}

func TestLoad_FindsFileInParentDirectory(t *testing.T) {
	dir := t.TempDir()
	content := "repository:\n  owner: octo\n  repo: demo\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	chdir(t, nested)
	t.Setenv("GITHUB_OWNER", "")
	t.Setenv("GITHUB_REPO", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "octo", cfg.Repository.Owner)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("repository: [broken"), 0644))

	chdir(t, dir)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	cfg := &Config{Repository: Repository{Owner: "octo", Repo: "demo"}, Workers: 3}
	require.NoError(t, cfg.Save(path))

	chdir(t, dir)
	t.Setenv("GITHUB_OWNER", "")
	t.Setenv("GITHUB_REPO", "")

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.Repository, loaded.Repository)
	assert.Equal(t, 3, loaded.Workers)
}

func TestRequireToken(t *testing.T) {
	t.Setenv(EnvToken, "")
	err := RequireToken()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvToken)

	t.Setenv(EnvToken, "ghp_sometoken")
	assert.NoError(t, RequireToken())
	assert.Equal(t, "ghp_sometoken", Token())
}

// chdir changes into dir for the duration of the test. The upward config
// search depends on the working directory.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}
