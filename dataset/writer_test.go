package dataset

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openfab-lab/showcase-scraper/models"
)

func sampleDataset() *models.Dataset {
	return &models.Dataset{
		LastUpdated:   time.Now().UTC().Format(time.RFC3339),
		TotalProjects: 1,
		ScrapingStats: models.ScrapeRunStats{
			StartTime:       time.Now(),
			ProjectsFound:   2,
			ProjectsScraped: 1,
			Errors:          1,
		},
		Projects: []models.ProjectRecord{
			{
				ID:    "projects-cnc-plotter",
				URL:   "https://fair.example.edu/projects/cnc-plotter/",
				Title: "CNC Plotter",
				Tags:  []string{"Robotics"},
			},
		},
	}
}

func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "projects.json")

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleDataset()))
	require.NoError(t, w.Validate())

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.TotalProjects)
	require.Len(t, loaded.Projects, 1)
	require.Equal(t, "projects-cnc-plotter", loaded.Projects[0].ID)
	require.Equal(t, 2, loaded.ScrapingStats.ProjectsFound)
}

func TestWriterReplacesPriorVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"totalProjects": 99}`), 0o644))

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleDataset()))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.TotalProjects, "prior dataset must be fully replaced")

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriterValidateFailsWithoutFile(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "projects.json"))
	require.NoError(t, err)
	require.Error(t, w.Validate())
}

func TestLoadDispatchesOnScheme(t *testing.T) {
	ds := sampleDataset()
	w, err := NewWriter(filepath.Join(t.TempDir(), "projects.json"))
	require.NoError(t, err)
	require.NoError(t, w.Write(ds))

	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		data, readErr := os.ReadFile(w.path)
		require.NoError(t, readErr)
		rw.Header().Set("Content-Type", "application/json")
		rw.Write(data)
	}))
	defer server.Close()

	loaded, err := Load(server.URL)
	require.NoError(t, err)
	require.Equal(t, ds.TotalProjects, loaded.TotalProjects)

	loaded, err = Load(w.path)
	require.NoError(t, err)
	require.Equal(t, ds.TotalProjects, loaded.TotalProjects)
}

func TestLoadURLSurfacesErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := LoadURL(server.URL)
	require.Error(t, err)
}

func TestWriteQRImages(t *testing.T) {
	dir := t.TempDir()
	records := []models.ProjectRecord{
		{ID: "projects-cnc-plotter", URL: "https://fair.example.edu/projects/cnc-plotter/"},
		{ID: "", URL: "https://fair.example.edu/projects/skipped/"},
		{ID: "projects-no-url", URL: ""},
	}

	written, err := WriteQRImages(records, dir)
	require.NoError(t, err)
	require.Equal(t, 1, written)

	info, err := os.Stat(filepath.Join(dir, "projects-cnc-plotter.png"))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}
