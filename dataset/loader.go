package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/openfab-lab/showcase-scraper/models"
)

// Load reads a dataset from source, which is either a local file path or an
// http(s) URL. The kiosk calls this exactly once at startup.
func Load(source string) (*models.Dataset, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return LoadURL(source)
	}
	return LoadFile(source)
}

// LoadFile reads a dataset from disk.
func LoadFile(path string) (*models.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset file: %w", err)
	}
	return decode(data)
}

// LoadURL fetches a dataset over HTTP.
func LoadURL(url string) (*models.Dataset, error) {
	client := resty.New().SetTimeout(30 * time.Second)
	resp, err := client.R().Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch dataset: status %d", resp.StatusCode())
	}
	return decode(resp.Body())
}

func decode(data []byte) (*models.Dataset, error) {
	var ds models.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &ds, nil
}
