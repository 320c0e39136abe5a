package hosting

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ExternalID идентификатор сборки, по которому сервер ищется в панели.
func ExternalID(buildID int64) string {
	return fmt.Sprintf("build-%d", buildID)
}

// CreateServer создаёт сервер. Ответ без положительного ID считается ошибкой.
func (c *Client) CreateServer(ctx context.Context, req CreateServerRequest) (*Server, error) {
	var resp object[Server]
	if err := c.do(ctx, http.MethodPost, "/servers", req, &resp); err != nil {
		return nil, err
	}
	if resp.Attributes.ID <= 0 {
		return nil, fmt.Errorf("%w: server id missing", ErrMalformedResponse)
	}
	return &resp.Attributes, nil
}

// GetServer возвращает сервер по ID панели.
func (c *Client) GetServer(ctx context.Context, id int64) (*Server, error) {
	var resp object[Server]
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/servers/%d", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Attributes, nil
}

// GetServerByExternalID ищет сервер по внешнему идентификатору.
func (c *Client) GetServerByExternalID(ctx context.Context, externalID string) (*Server, error) {
	var resp object[Server]
	path := "/servers/external/" + url.PathEscape(externalID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Attributes, nil
}

// ListUserServers возвращает все серверы пользователя панели.
func (c *Client) ListUserServers(ctx context.Context, userID int64) ([]Server, error) {
	var resp object[userWithServers]
	path := fmt.Sprintf("/users/%d?include=servers", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	servers := make([]Server, 0, len(resp.Attributes.Relationships.Servers.Data))
	for _, s := range resp.Attributes.Relationships.Servers.Data {
		servers = append(servers, s.Attributes)
	}
	return servers, nil
}

// UpdateServerBuild меняет ресурсы сервера.
func (c *Client) UpdateServerBuild(ctx context.Context, id int64, req UpdateBuildRequest) (*Server, error) {
	var resp object[Server]
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/servers/%d/build", id), req, &resp); err != nil {
		return nil, err
	}
	return &resp.Attributes, nil
}

// UpdateServerDetails меняет название и описание сервера.
func (c *Client) UpdateServerDetails(ctx context.Context, id int64, req UpdateDetailsRequest) (*Server, error) {
	var resp object[Server]
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/servers/%d/details", id), req, &resp); err != nil {
		return nil, err
	}
	return &resp.Attributes, nil
}

// SuspendServer приостанавливает сервер.
func (c *Client) SuspendServer(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/servers/%d/suspend", id), nil, nil)
}

// UnsuspendServer снимает приостановку.
func (c *Client) UnsuspendServer(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/servers/%d/unsuspend", id), nil, nil)
}

// DeleteServer удаляет сервер. При force панель удаляет его даже если демон недоступен.
func (c *Client) DeleteServer(ctx context.Context, id int64, force bool) error {
	path := fmt.Sprintf("/servers/%d", id)
	if force {
		path += "/force"
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
