package backend

import (
	"context"
	"fmt"

	"myexpenses/internal/amqp"
	"myexpenses/internal/core"
	"myexpenses/internal/log"
	"myexpenses/internal/records"
	"myexpenses/internal/services"
	"myexpenses/internal/sheets"
	gsheet "myexpenses/internal/sheets/google"
	sheetsmem "myexpenses/internal/sheets/memory"
	"myexpenses/internal/storage"
	kvmem "myexpenses/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	kv, closeKV, err := f.openKV(config)
	if err != nil {
		return nil, err
	}

	store := records.NewStore(kv, config.StorageKey, f.logger)
	opts := []services.Option{
		services.WithLogger(f.logger),
		services.WithStrictHeader(config.CSVStrictHeader),
	}

	// AMQP is optional; the list is the source of truth either way
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change events",
				log.FieldError, err)
		} else {
			opts = append(opts, services.WithPublisher(amqpClient))
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange, "queue", config.AMQPQueue)
		}
	}

	svc := services.NewExpenseService(store, opts...)

	f.logger.InfoContext(ctx, "Initialized backend",
		log.FieldBackend, config.Type.String(),
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Service:    svc,
		Store:      store,
		Categories: core.LoadCategories(dataDir(config)),
		Cleanup: func() error {
			svcErr := svc.Close()
			kvErr := closeKV()
			if svcErr != nil {
				return svcErr
			}
			return kvErr
		},
	}, nil
}

func (f *DefaultFactory) openKV(config Config) (storage.KV, func() error, error) {
	switch config.Type {
	case SQLiteBackend:
		kv, err := storage.NewSQLiteKV(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
		return kv, kv.Close, nil
	case MemoryBackend:
		f.logger.Warn("Using in-memory storage, expenses are lost on exit")
		return kvmem.New(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreateMirror implements Factory.CreateMirror. Without a spreadsheet ID the
// worker writes to an in-process mirror, which is only useful for development.
func (f *DefaultFactory) CreateMirror(ctx context.Context, config Config) (sheets.RowMirror, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.WarnContext(ctx, "GOOGLE_SPREADSHEET_ID not set, mirroring to memory")
		return sheetsmem.New(), nil
	}

	cli, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
		Logger:          f.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return cli, nil
}

func dataDir(config Config) string {
	if config.DataDir == "" {
		return "data"
	}
	return config.DataDir
}
