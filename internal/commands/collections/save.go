package collectionscmd

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-cms-inline/internal/collections"
	"github.com/goliatone/go-cms-inline/internal/commands"
	"github.com/goliatone/go-cms-inline/internal/domain"
	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

const saveCollectionMessageType = "cms.collections.save"

// SaveCollectionCommand replaces the ordered element list of a section.
type SaveCollectionCommand struct {
	PageKey    string           `json:"page_key"`
	SectionKey string           `json:"section_key"`
	Elements   []map[string]any `json:"elements"`
	Status     domain.Status    `json:"status,omitempty"`
}

// Type implements command.Message.
func (SaveCollectionCommand) Type() string { return saveCollectionMessageType }

// Address implements commands.Addressable.
func (m SaveCollectionCommand) Address() (string, string) { return m.PageKey, m.SectionKey }

func (m SaveCollectionCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.PageKey) == "" {
		errs["page_key"] = validation.NewError("cms.collections.save.page_key_required", "page_key is required")
	}
	if strings.TrimSpace(m.SectionKey) == "" {
		errs["section_key"] = validation.NewError("cms.collections.save.section_key_required", "section_key is required")
	}
	if _, ok := domain.ParseStatus(string(m.Status)); !ok {
		errs["status"] = validation.NewError("cms.collections.save.status_invalid", "status must be draft or published")
	}
	for i, record := range m.Elements {
		if _, err := collections.Decode(record); err != nil {
			errs["elements"] = validation.NewError("cms.collections.save.element_invalid", fmt.Sprintf("element %d: %v", i, err))
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SaveCollectionHandler persists collections through the collection service.
type SaveCollectionHandler struct {
	inner *commands.Handler[SaveCollectionCommand]
}

func NewSaveCollectionHandler(service *collections.Service, logger interfaces.Logger, opts ...commands.Option[SaveCollectionCommand]) *SaveCollectionHandler {
	exec := func(ctx context.Context, msg SaveCollectionCommand) error {
		decoded, err := collections.DecodeAll(msg.Elements)
		if err != nil {
			return err
		}
		coll, err := collections.New(decoded)
		if err != nil {
			return err
		}
		status, _ := domain.ParseStatus(string(msg.Status))
		_, err = service.Save(ctx, msg.PageKey, msg.SectionKey, coll, status)
		return err
	}

	handlerOpts := []commands.Option[SaveCollectionCommand]{
		commands.WithLogger[SaveCollectionCommand](logger),
		commands.WithOperation[SaveCollectionCommand]("collections.save"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SaveCollectionHandler{
		inner: commands.NewHandler[SaveCollectionCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[SaveCollectionCommand].Execute.
func (h *SaveCollectionHandler) Execute(ctx context.Context, msg SaveCollectionCommand) error {
	return h.inner.Execute(ctx, msg)
}
