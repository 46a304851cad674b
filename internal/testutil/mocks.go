package testutil

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/khoahotran/pictures/internal/application/service"
)

type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) Publish(ctx context.Context, evt service.ChangeEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

// Kinds lists the kinds of every Publish call, in order.
func (m *EventPublisher) Kinds() []service.ChangeKind {
	var kinds []service.ChangeKind
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		kinds = append(kinds, call.Arguments.Get(1).(service.ChangeEvent).Kind)
	}
	return kinds
}

type Uploader struct {
	mock.Mock
}

func (m *Uploader) Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error) {
	data, _ := io.ReadAll(file)
	args := m.Called(ctx, data, folder, publicID)
	return args.String(0), args.Error(1)
}

func (m *Uploader) Delete(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

type MetadataExtractor struct {
	mock.Mock
}

func (m *MetadataExtractor) Extract(ctx context.Context, name string, data []byte) (*service.ExtractedMetadata, error) {
	args := m.Called(ctx, name, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExtractedMetadata), args.Error(1)
}
