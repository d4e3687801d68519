//go:build unit
// +build unit

package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAsset(t *testing.T) {
	jobs, err := GetAsset("jobs.toml")
	assert.Nil(t, err)
	assert.True(t, strings.Contains(jobs, "targets = [23533, 27566, 21650]"))

	_, err = GetAsset("no_such_file.toml")
	assert.Error(t, err)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Hamming_Weight", want: "hammingweight"},
		{in: "hamming-weight", want: "hammingweight"},
		{in: "near", want: "near"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestIsDirWritable(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, IsDirWritable(dir))

	missing := filepath.Join(dir, "missing")
	assert.EqualError(t, IsDirWritable(missing), "directory does not exist: "+missing)

	file := filepath.Join(dir, "file")
	assert.Nil(t, os.WriteFile(file, []byte("x"), 0644))
	assert.EqualError(t, IsDirWritable(file), file+" is not a directory")
}

func TestReadSettingsFile(t *testing.T) {
	path, err := GetAssetAbsPath("setting.toml")
	assert.Nil(t, err)
	s, err := ReadSettingsFile(path)
	assert.Nil(t, err)
	assert.True(t, strings.HasPrefix(s, "[com.engine]"))

	_, err = ReadSettingsFile(filepath.Join(t.TempDir(), "none.toml"))
	assert.Error(t, err)
}
