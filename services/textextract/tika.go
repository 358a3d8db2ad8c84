package textextract

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core/content"
)

// TikaClient extracts text through the `PUT /tika` endpoint of an Apache Tika server.
type TikaClient struct {
	serverURL  string
	httpClient *http.Client
}

var _ content.PDFExtractor = (*TikaClient)(nil)

func NewTikaClient(serverURL string, timeout time.Duration) *TikaClient {
	return &TikaClient{
		serverURL:  strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *TikaClient) ExtractText(ctx context.Context, r io.ReaderAt, size int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.serverURL+"/tika", io.NewSectionReader(r, 0, size))
	if err != nil {
		return "", errors.Wrap(err, "creating tika request")
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "text/plain")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling tika server")
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.Wrap(err, "reading tika response")
	}
	if res.StatusCode != http.StatusOK {
		return "", errors.Errorf("tika server returned %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return string(body), nil
}
