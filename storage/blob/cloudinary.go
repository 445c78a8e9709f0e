package blob

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/enghaven/portal/core"
)

const cloudinaryAPI = "https://api.cloudinary.com/v1_1"

// CloudinaryStore uploads blobs to Cloudinary using their REST API.
// References are the secure URLs of the uploaded assets.
type CloudinaryStore struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	BaseURL   string
	HTTP      *http.Client
}

var _ core.BlobStore = (*CloudinaryStore)(nil)

func NewCloudinaryStore(conf core.CloudinaryConfig) (*CloudinaryStore, error) {
	if conf.CloudName == "" || conf.APIKey == "" || conf.APISecret == "" {
		return nil, errors.New("cloudinary: cloud name, api key and api secret are required")
	}
	return &CloudinaryStore{
		CloudName: conf.CloudName,
		APIKey:    conf.APIKey,
		APISecret: conf.APISecret,
		Folder:    conf.Folder,
		BaseURL:   cloudinaryAPI,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type uploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
}

// Put streams the file to the "auto" upload endpoint so images and PDFs are both accepted.
func (c *CloudinaryStore) Put(ctx context.Context, filename, _ string, r io.Reader) (string, error) {
	params := map[string]string{
		"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
		"api_key":   c.APIKey,
	}
	if c.Folder != "" {
		params["folder"] = c.Folder
	}
	params["signature"] = c.sign(params)

	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)
	go func() {
		for k, v := range params {
			if err := w.WriteField(k, v); err != nil {
				_ = pw.CloseWithError(err)
				return
			}
		}
		part, err := w.CreateFormFile("file", safeName(filename))
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = w.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	url := fmt.Sprintf("%s/%s/auto/upload", c.BaseURL, c.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		_ = pr.Close()
		return "", errors.Wrap(err, "cloudinary: creating request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "cloudinary: uploading")
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", errors.Errorf("cloudinary: upload failed (%d): %s", resp.StatusCode, string(body))
	}

	var result uploadResult
	if err = json.Unmarshal(body, &result); err != nil {
		return "", errors.Wrap(err, "cloudinary: decoding response")
	}
	if result.SecureURL != "" {
		return result.SecureURL, nil
	}
	if result.URL != "" {
		return result.URL, nil
	}
	return "", errors.New("cloudinary: response has no url")
}

// Get downloads the asset at ref.
func (c *CloudinaryStore) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	if !strings.HasPrefix(ref, "https://") && !strings.HasPrefix(ref, "http://") {
		return nil, errors.Errorf("cloudinary: %q is not a url", ref)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary: creating request")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary: downloading")
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, errors.Errorf("cloudinary: download failed (%d)", resp.StatusCode)
	}
	return resp.Body, nil
}

// sign computes the Cloudinary API signature from the given params.
// api_key, file and resource_type are not signed.
func (c *CloudinaryStore) sign(params map[string]string) string {
	excludeKeys := map[string]bool{"api_key": true, "file": true, "resource_type": true}

	pairs := make([]string, 0, len(params))
	for k, v := range params {
		if !excludeKeys[k] && v != "" {
			pairs = append(pairs, k+"="+v)
		}
	}
	sort.Strings(pairs)

	h := sha1.New()
	h.Write([]byte(strings.Join(pairs, "&") + c.APISecret))
	return fmt.Sprintf("%x", h.Sum(nil))
}
