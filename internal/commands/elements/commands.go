package elementscmd

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-cms-inline/internal/commands"
	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/internal/elements"
	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

const (
	saveDraftMessageType = "cms.elements.save_draft"
	publishMessageType   = "cms.elements.publish"
)

// Store is the slice of the element store the handlers need.
type Store interface {
	Upsert(ctx context.Context, req elements.UpsertRequest) (*elements.Element, error)
	Publish(ctx context.Context, pageKey, elementKey string) (*elements.Element, error)
}

// SaveDraftCommand stores a working copy without touching the published snapshot.
type SaveDraftCommand struct {
	PageKey          string             `json:"page_key"`
	ElementKey       string             `json:"element_key"`
	ElementType      domain.ElementType `json:"element_type"`
	ContentAr        string             `json:"content_ar"`
	ContentEn        string             `json:"content_en"`
	Metadata         map[string]any     `json:"metadata,omitempty"`
	ExpectedRevision *int               `json:"expected_revision,omitempty"`
}

// Type implements command.Message.
func (SaveDraftCommand) Type() string { return saveDraftMessageType }

// Address implements commands.Addressable.
func (m SaveDraftCommand) Address() (string, string) { return m.PageKey, m.ElementKey }

func (m SaveDraftCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.PageKey, validation.Required, validation.By(notBlank)),
		validation.Field(&m.ElementKey, validation.Required, validation.By(notBlank)),
		validation.Field(&m.ElementType, validation.Required, validation.By(knownType)),
		validation.Field(&m.ExpectedRevision, validation.Min(0)),
	)
}

// PublishCommand promotes an element to published. With Content set the
// payload is published in one step, otherwise the current working copy is.
type PublishCommand struct {
	PageKey    string            `json:"page_key"`
	ElementKey string            `json:"element_key"`
	Content    *SaveDraftCommand `json:"content,omitempty"`
}

// Type implements command.Message.
func (PublishCommand) Type() string { return publishMessageType }

// Address implements commands.Addressable.
func (m PublishCommand) Address() (string, string) { return m.PageKey, m.ElementKey }

func (m PublishCommand) Validate() error {
	if err := validation.ValidateStruct(&m,
		validation.Field(&m.PageKey, validation.Required, validation.By(notBlank)),
		validation.Field(&m.ElementKey, validation.Required, validation.By(notBlank)),
	); err != nil {
		return err
	}
	if m.Content == nil {
		return nil
	}
	if err := m.Content.Validate(); err != nil {
		return validation.Errors{"content": err}
	}
	if !sameElement(m.PageKey, m.Content.PageKey) || !sameElement(m.ElementKey, m.Content.ElementKey) {
		return validation.Errors{
			"content": validation.NewError("cms.elements.publish.content_mismatch", "content must address the published element"),
		}
	}
	return nil
}

// SaveDraftHandler persists drafts through the element store.
type SaveDraftHandler struct {
	inner *commands.Handler[SaveDraftCommand]
}

func NewSaveDraftHandler(store Store, logger interfaces.Logger, opts ...commands.Option[SaveDraftCommand]) *SaveDraftHandler {
	exec := func(ctx context.Context, msg SaveDraftCommand) error {
		_, err := store.Upsert(ctx, msg.request(domain.StatusDraft))
		return err
	}

	handlerOpts := []commands.Option[SaveDraftCommand]{
		commands.WithLogger[SaveDraftCommand](logger),
		commands.WithOperation[SaveDraftCommand]("elements.save_draft"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SaveDraftHandler{
		inner: commands.NewHandler[SaveDraftCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[SaveDraftCommand].Execute.
func (h *SaveDraftHandler) Execute(ctx context.Context, msg SaveDraftCommand) error {
	return h.inner.Execute(ctx, msg)
}

// PublishHandler publishes elements through the element store.
type PublishHandler struct {
	inner *commands.Handler[PublishCommand]
}

func NewPublishHandler(store Store, logger interfaces.Logger, opts ...commands.Option[PublishCommand]) *PublishHandler {
	exec := func(ctx context.Context, msg PublishCommand) error {
		if msg.Content != nil {
			_, err := store.Upsert(ctx, msg.Content.request(domain.StatusPublished))
			return err
		}
		_, err := store.Publish(ctx, msg.PageKey, msg.ElementKey)
		return err
	}

	handlerOpts := []commands.Option[PublishCommand]{
		commands.WithLogger[PublishCommand](logger),
		commands.WithOperation[PublishCommand]("elements.publish"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PublishHandler{
		inner: commands.NewHandler[PublishCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PublishCommand].Execute.
func (h *PublishHandler) Execute(ctx context.Context, msg PublishCommand) error {
	return h.inner.Execute(ctx, msg)
}

func (m SaveDraftCommand) request(status domain.Status) elements.UpsertRequest {
	return elements.UpsertRequest{
		PageKey:          m.PageKey,
		ElementKey:       m.ElementKey,
		ElementType:      m.ElementType,
		ContentAr:        m.ContentAr,
		ContentEn:        m.ContentEn,
		Metadata:         m.Metadata,
		Status:           status,
		ExpectedRevision: m.ExpectedRevision,
	}
}

func notBlank(value any) error {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return validation.NewError("cms.elements.blank", "must not be blank")
	}
	return nil
}

func knownType(value any) error {
	elementType, _ := value.(domain.ElementType)
	if _, ok := domain.ParseElementType(string(elementType)); !ok {
		return validation.NewError("cms.elements.element_type_unknown", "unknown element type")
	}
	return nil
}

func sameElement(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
