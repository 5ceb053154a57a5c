package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/finance-assistant/internal/format"
	"github.com/dvloznov/finance-assistant/internal/report"
)

// NotionService is the slice of the Notion API the exporter needs.
// Implemented by NotionClient; tests substitute a fake.
type NotionService interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
}

// NotionClient is the concrete NotionService using the official SDK.
type NotionClient struct {
	client *notionapi.Client
}

// NewNotionClient creates a NotionClient with the provided API token.
func NewNotionClient(token string) *NotionClient {
	return &NotionClient{
		client: notionapi.NewClient(notionapi.Token(token)),
	}
}

// CreatePage creates a new page in a Notion database with the given properties.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}

	page, err := n.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}

	return page, nil
}

// NotionExporter creates one database page per exported report.
type NotionExporter struct {
	service    NotionService
	databaseID string
}

// NewNotionExporter creates an exporter targeting the given database.
func NewNotionExporter(service NotionService, databaseID string) *NotionExporter {
	return &NotionExporter{service: service, databaseID: databaseID}
}

// Export creates the Notion page and returns its ID.
func (e *NotionExporter) Export(ctx context.Context, rep *report.Report) (string, error) {
	page, err := e.service.CreatePage(ctx, e.databaseID, ReportToNotionProperties(rep))
	if err != nil {
		return "", fmt.Errorf("Export: creating page: %w", err)
	}
	return string(page.ID), nil
}

// ReportToNotionProperties converts a report to Notion page properties:
// title, saved date, response type and the text summary.
func ReportToNotionProperties(rep *report.Report) notionapi.Properties {
	props := notionapi.Properties{
		"Title": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: reportTitle(rep),
					},
				},
			},
		},
	}

	if !rep.CreatedAt.IsZero() {
		props["Saved"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(rep.CreatedAt.UTC().Truncate(24 * time.Hour))
					return &d
				}(),
			},
		}
	}

	var resp format.Response
	if err := json.Unmarshal(rep.Response, &resp); err != nil {
		return props
	}

	if resp.Type != "" {
		props["Type"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(resp.Type),
			},
		}
	}

	if resp.Content != "" {
		props["Summary"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: resp.Content,
					},
				},
			},
		}
	}

	return props
}

func reportTitle(rep *report.Report) string {
	if rep.Title != "" {
		return rep.Title
	}
	return "Report " + rep.ID
}
