package hosting

import (
	"context"
	"fmt"
	"net/http"
)

// GetEgg возвращает шаблон вместе со значениями переменных окружения по умолчанию.
func (c *Client) GetEgg(ctx context.Context, nestID, eggID int64) (*Egg, error) {
	var resp object[eggAttributes]
	path := fmt.Sprintf("/nests/%d/eggs/%d?include=variables", nestID, eggID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	egg := resp.Attributes.Egg
	if egg.ID <= 0 {
		return nil, fmt.Errorf("%w: egg id missing", ErrMalformedResponse)
	}
	egg.Environment = make(map[string]string, len(resp.Attributes.Relationships.Variables.Data))
	for _, v := range resp.Attributes.Relationships.Variables.Data {
		egg.Environment[v.Attributes.EnvVariable] = v.Attributes.DefaultValue
	}
	return &egg, nil
}

// GetNest возвращает группу шаблонов.
func (c *Client) GetNest(ctx context.Context, id int64) (*Nest, error) {
	var resp object[Nest]
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/nests/%d", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Attributes, nil
}

// GetLocation возвращает локацию.
func (c *Client) GetLocation(ctx context.Context, id int64) (*Location, error) {
	var resp object[Location]
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/locations/%d", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Attributes, nil
}

// GetUser возвращает пользователя панели.
func (c *Client) GetUser(ctx context.Context, id int64) (*User, error) {
	var resp object[User]
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Attributes, nil
}
