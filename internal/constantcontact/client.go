package constantcontact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// listMembersPageSize is the largest page the contacts endpoint returns.
const listMembersPageSize = "500"

// Client is a Constant Contact v3 API client.
// Every write re-asserts membership of the configured list.
type Client struct {
	// baseURL is the base URL for API requests.
	baseURL string

	// config holds the client configuration.
	config Config

	// httpClient is the HTTP client for making requests.
	httpClient *http.Client

	// tokenManager handles OAuth token refresh.
	tokenManager *tokenManager
}

// ListID returns the list this client synchronizes.
func (c *Client) ListID() string {
	return c.config.ListID
}

// ListMembers returns the contacts currently on the configured list.
// Only the first page is fetched; very large lists are returned incomplete.
func (c *Client) ListMembers(ctx context.Context) ([]Contact, error) {
	params := url.Values{}
	params.Set("include", "custom_fields,list_memberships,phone_numbers,street_addresses")
	params.Set("limit", listMembersPageSize)
	params.Set("lists", c.config.ListID)
	params.Set("status", "all")

	reqURL := fmt.Sprintf("%s/contacts?%s", c.baseURL, params.Encode())

	var result contactsResponse
	if err := c.doRequest(ctx, http.MethodGet, reqURL, nil, &result); err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}

	return result.Contacts, nil
}

// RemoveContactFromList detaches a contact from the configured list without deleting it.
func (c *Client) RemoveContactFromList(ctx context.Context, contactID string) error {
	if contactID == "" {
		return errors.New("contact ID is required")
	}

	reqURL := fmt.Sprintf("%s/activities/remove_list_memberships", c.baseURL)
	body := removeListMembershipsRequest{
		ListIDs: []string{c.config.ListID},
		Source:  removeListMembershipsSource{ContactIDs: []string{contactID}},
	}

	if err := c.doRequest(ctx, http.MethodPost, reqURL, body, nil); err != nil {
		return fmt.Errorf("removing contact from list: %w", err)
	}

	return nil
}

// UpdateContact replaces the mutable fields of an existing contact.
func (c *Client) UpdateContact(ctx context.Context, contactID string, contact *Contact) (*Contact, error) {
	if contactID == "" {
		return nil, errors.New("contact ID is required")
	}
	if contact.Email() == "" {
		return nil, errors.New("contact email is required")
	}

	reqURL := fmt.Sprintf("%s/contacts/%s", c.baseURL, url.PathEscape(contactID))

	body := *contact
	body.ContactID = ""
	body.CreateSource = ""
	body.EmailAddress = &EmailAddress{
		Address:          contact.EmailAddress.Address,
		PermissionToSend: contact.EmailAddress.PermissionToSend,
	}
	if body.EmailAddress.PermissionToSend == "" {
		body.EmailAddress.PermissionToSend = PermissionImplicit
	}
	body.ListMemberships = c.listMemberships()
	body.UpdateSource = SourceAccount

	var result Contact
	if err := c.doRequest(ctx, http.MethodPut, reqURL, &body, &result); err != nil {
		return nil, fmt.Errorf("updating contact: %w", err)
	}

	// The provider echoes the contact; the list assertion holds either way.
	if result.ContactID == "" {
		result = body
		result.ContactID = contactID
	}
	result.ListMemberships = c.listMemberships()

	return &result, nil
}

// UpsertContact creates a contact, or overwrites the one with the same email address.
func (c *Client) UpsertContact(ctx context.Context, contact *Contact) (*Contact, error) {
	if contact.Email() == "" {
		return nil, errors.New("contact email is required")
	}

	reqURL := fmt.Sprintf("%s/contacts/sign_up_form", c.baseURL)

	body := signUpFormRequest{
		CustomFields:    contact.CustomFields,
		EmailAddress:    contact.Email(),
		FirstName:       contact.FirstName,
		LastName:        contact.LastName,
		ListMemberships: c.listMemberships(),
	}
	if len(contact.PhoneNumbers) > 0 {
		body.PhoneNumber = contact.PhoneNumbers[0].PhoneNumber
	}
	if len(contact.StreetAddresses) > 0 {
		addr := contact.StreetAddresses[0]
		body.StreetAddress = &addr
	}

	var result signUpFormResponse
	if err := c.doRequest(ctx, http.MethodPost, reqURL, &body, &result); err != nil {
		return nil, fmt.Errorf("upserting contact: %w", err)
	}

	upserted := *contact
	upserted.ContactID = result.ContactID
	upserted.ListMemberships = c.listMemberships()

	return &upserted, nil
}

// doRequest executes an HTTP request with authentication and JSON encoding.
func (c *Client) doRequest(ctx context.Context, method string, reqURL string, body any, result any) error {
	accessToken, err := c.tokenManager.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("getting access token: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return newAPIError(resp.StatusCode, respBody)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// listMemberships returns a fresh slice holding only the configured list.
func (c *Client) listMemberships() []string {
	return []string{c.config.ListID}
}

// Config holds the required configuration for creating a Client.
type Config struct {
	// APIKey is the application client ID, also sent as the x-api-key header.
	APIKey string

	// ClientSecret is the application secret; empty for PKCE-issued refresh tokens.
	ClientSecret string

	// ListID is the contact list kept in sync.
	ListID string

	// TokenStore provides access to OAuth refresh tokens.
	TokenStore TokenStore
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("API key is required"))
	}
	if c.ListID == "" {
		errs = append(errs, errors.New("list ID is required"))
	}
	if c.TokenStore == nil {
		errs = append(errs, errors.New("token store is required"))
	}
	return errors.Join(errs...)
}

// NewClient creates a new Constant Contact API client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	httpClient := o.client()

	exchanger := &TokenExchanger{
		apiKey:       cfg.APIKey,
		clientSecret: cfg.ClientSecret,
		httpClient:   httpClient,
		tokenURL:     o.tokenURL,
	}

	return &Client{
		baseURL:      o.baseURL,
		config:       cfg,
		httpClient:   httpClient,
		tokenManager: newTokenManager(exchanger, cfg.TokenStore, o.now),
	}, nil
}
