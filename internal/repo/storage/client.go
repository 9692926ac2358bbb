package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/physiohome/chat-service/internal/config"
	"github.com/physiohome/chat-service/pkg/util"
)

// Client is the attachment storage contract: bytes and a name in, an
// addressable reference out. The core never inspects stored content.
type Client interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
}

func NewClient(conf *config.Config) Client {
	if conf.Storage.BaseURL == "" {
		return &placeholderClient{}
	}
	return &httpClient{
		http: util.NewRestyClient().SetBaseURL(conf.Storage.BaseURL),
	}
}

type httpClient struct {
	http *resty.Client
}

func (c *httpClient) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", fileName, bytes.NewReader(data)).
		Post("/v1/attachments")
	if err != nil {
		return "", fmt.Errorf("upload attachment: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("upload attachment: status %d", resp.StatusCode())
	}

	ref := gjson.GetBytes(resp.Body(), "url").String()
	if ref == "" {
		return "", fmt.Errorf("upload attachment: no url in response")
	}
	return ref, nil
}

// placeholderClient stands in when no storage service is configured; it
// derives a reference from the file name, matching the demo behavior.
type placeholderClient struct{}

func (placeholderClient) Upload(_ context.Context, fileName string, _ []byte) (string, error) {
	return "/placeholder.svg?height=200&width=300&text=" + url.QueryEscape(fileName), nil
}
