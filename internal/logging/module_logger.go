package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

const (
	rootModule        = "cms"
	elementsModule    = "cms.elements"
	autosaveModule    = "cms.autosave"
	sessionModule     = "cms.session"
	collectionsModule = "cms.collections"
)

const (
	fieldPageKey    = "page_key"
	fieldElementKey = "element_key"
	fieldLocale     = "locale"
)

// ModuleLogger returns a logger scoped to module. Without a provider it falls
// back to a no-op logger. The module name is attached as a "module" field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// ElementsLogger returns the logger namespace reserved for the content element store.
func ElementsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, elementsModule)
}

// AutosaveLogger returns the logger namespace reserved for autosave managers.
func AutosaveLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, autosaveModule)
}

// SessionLogger returns the logger namespace reserved for the editing session controller.
func SessionLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, sessionModule)
}

// CollectionsLogger returns the logger namespace reserved for element collections.
func CollectionsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, collectionsModule)
}

// WithElement enriches the logger with the element address and, when set, the
// active locale. Empty values are skipped.
func WithElement(logger interfaces.Logger, pageKey, elementKey, locale string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(pageKey); trimmed != "" {
		fields[fieldPageKey] = trimmed
	}
	if trimmed := strings.TrimSpace(elementKey); trimmed != "" {
		fields[fieldElementKey] = trimmed
	}
	if trimmed := strings.TrimSpace(locale); trimmed != "" {
		fields[fieldLocale] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
