// Package firestore implements the service.Service interface using the
// Cloud Firestore REST API.
package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	fsapi "google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"gtodo/internal/config"
	"gtodo/internal/service"
)

const (
	// DefaultDatabaseID is the database used when none is configured.
	DefaultDatabaseID = "(default)"

	// PageSize is the number of documents per list page.
	PageSize = 300

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Cloud Firestore.
	Scope = "https://www.googleapis.com/auth/datastore"

	// requestTime is the server value that stamps a field with the commit
	// time.
	requestTime = "REQUEST_TIME"
)

// ErrNoProject is returned when no Firestore project is configured.
var ErrNoProject = errors.New("FIREBASE_PROJECT_ID not set")

// Options selects the project, database and collection.
type Options struct {
	ProjectID  string
	DatabaseID string
	Collection string

	// Endpoint overrides the API base URL (emulator, tests).
	Endpoint string
}

// Client implements service.Service using the Firestore REST API.
type Client struct {
	docs       *fsapi.ProjectsDatabasesDocumentsService
	database   string
	parent     string
	collection string
}

// New creates a Firestore client from configuration.
//
// Credentials are tried in order: the emulator (no auth), the OAuth token
// stored by `gtodo login`, a service-account file, then application default
// credentials.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.Firestore.ProjectID == "" {
		return nil, ErrNoProject
	}
	opts := Options{
		ProjectID:  cfg.Firestore.ProjectID,
		DatabaseID: cfg.Firestore.DatabaseID,
		Collection: cfg.CollectionName(),
	}

	var clientOpts []option.ClientOption
	switch {
	case cfg.Firestore.EmulatorHost != "":
		opts.Endpoint = "http://" + cfg.Firestore.EmulatorHost + "/"
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	case cfg.HasToken() && cfg.HasOAuthClient():
		httpClient, err := oauthHTTPClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, option.WithHTTPClient(httpClient))
	case cfg.Firestore.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.Firestore.CredentialsFile))
	default:
		clientOpts = append(clientOpts, option.WithScopes(Scope))
	}

	return newClient(ctx, opts, clientOpts...)
}

// oauthHTTPClient builds an auto-refreshing HTTP client from
// oauth_client.json and token.json.
func oauthHTTPClient(ctx context.Context, cfg *config.Config) (*http.Client, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}

	tokenData, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}

	return oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token)), nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing
// and emulators).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts Options) (*Client, error) {
	return newClient(ctx, opts, option.WithHTTPClient(httpClient))
}

func newClient(ctx context.Context, opts Options, clientOpts ...option.ClientOption) (*Client, error) {
	if opts.ProjectID == "" {
		return nil, ErrNoProject
	}
	if opts.DatabaseID == "" {
		opts.DatabaseID = DefaultDatabaseID
	}
	if opts.Collection == "" {
		opts.Collection = service.DefaultCollection
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := fsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore service: %w", err)
	}

	database := fmt.Sprintf("projects/%s/databases/%s", opts.ProjectID, opts.DatabaseID)
	return &Client{
		docs:       svc.Projects.Databases.Documents,
		database:   database,
		parent:     database + "/documents",
		collection: opts.Collection,
	}, nil
}

// docName returns the full resource name of a task document.
func (c *Client) docName(id string) string {
	return c.parent + "/" + c.collection + "/" + id
}

// CreateTask implements service.Service.
// The document is written in a single commit whose transform sets
// createdAt to the server's commit time, so ordering never depends on
// client clocks. The exists=false precondition rejects an id collision.
func (c *Client) CreateTask(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	id := uuid.NewString()
	write := &fsapi.Write{
		Update: &fsapi.Document{
			Name: c.docName(id),
			Fields: map[string]fsapi.Value{
				service.FieldText:      {StringValue: text},
				service.FieldCompleted: boolValue(false),
			},
		},
		CurrentDocument: &fsapi.Precondition{Exists: false, ForceSendFields: []string{"Exists"}},
		UpdateTransforms: []*fsapi.FieldTransform{
			{FieldPath: service.FieldCreatedAt, SetToServerValue: requestTime},
		},
	}

	req := &fsapi.CommitRequest{Writes: []*fsapi.Write{write}}
	if _, err := c.docs.Commit(c.database, req).Context(ctx).Do(); err != nil {
		return "", wrapError(err)
	}
	return id, nil
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var result []service.Task
	err := c.docs.List(c.parent, c.collection).
		OrderBy(service.FieldCreatedAt+" desc").
		PageSize(PageSize).
		Pages(ctx, func(resp *fsapi.ListDocumentsResponse) error {
			for _, doc := range resp.Documents {
				result = append(result, decodeTask(doc))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// UpdateTask implements service.Service.
// The update mask limits the write to the provided fields and the
// existence precondition turns a missing document into ErrNotFound.
func (c *Client) UpdateTask(ctx context.Context, id string, update service.TaskUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	// An empty mask would replace the whole document.
	if update.IsEmpty() {
		if _, err := c.docs.Get(c.docName(id)).Context(ctx).Do(); err != nil {
			return wrapError(err)
		}
		return nil
	}

	fields := make(map[string]fsapi.Value)
	if update.Text != nil {
		fields[service.FieldText] = fsapi.Value{StringValue: *update.Text}
	}
	if update.Completed != nil {
		fields[service.FieldCompleted] = boolValue(*update.Completed)
	}

	_, err := c.docs.Patch(c.docName(id), &fsapi.Document{Fields: fields}).
		UpdateMaskFieldPaths(update.FieldPaths()...).
		CurrentDocumentExists(true).
		Context(ctx).
		Do()
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// DeleteTask implements service.Service. A document that is already gone
// is not an error.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if _, err := c.docs.Delete(c.docName(id)).Context(ctx).Do(); err != nil {
		err = wrapError(err)
		if errors.Is(err, service.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// boolValue builds a boolean Value that is sent even when false.
func boolValue(b bool) fsapi.Value {
	return fsapi.Value{BooleanValue: b, ForceSendFields: []string{"BooleanValue"}}
}

// decodeTask maps a Firestore document to a Task. Missing fields keep
// their zero values.
func decodeTask(doc *fsapi.Document) service.Task {
	task := service.Task{ID: path.Base(doc.Name)}
	if v, ok := doc.Fields[service.FieldText]; ok {
		task.Text = v.StringValue
	}
	if v, ok := doc.Fields[service.FieldCompleted]; ok {
		task.Completed = v.BooleanValue
	}
	if v, ok := doc.Fields[service.FieldCreatedAt]; ok {
		if ts, err := time.Parse(time.RFC3339Nano, v.TimestampValue); err == nil {
			task.CreatedAt = ts
		}
	}
	return task
}

// wrapError maps API errors onto the service error taxonomy.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out: %w", service.ErrTransport, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", service.ErrNotFound, apiMessage(apiErr))
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: credentials rejected (run: gtodo login)", service.ErrNotInitialized)
		}
	}

	// Application default credentials that cannot be found surface only when
	// the first request is made.
	if strings.Contains(err.Error(), "could not find default credentials") {
		return fmt.Errorf("%w: %v", service.ErrNotInitialized, err)
	}

	return fmt.Errorf("%w: %w", service.ErrTransport, err)
}

func apiMessage(err *googleapi.Error) string {
	if err.Message != "" {
		return err.Message
	}
	return http.StatusText(err.Code)
}
