package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/marcogbarcellos/pgstudio/internal/events"
	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/pgtools"
	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/apperr"
	"github.com/marcogbarcellos/pgstudio/internal/pkg/logctx"
)

const (
	operationDump     = "dump"
	operationRestore  = "restore"
	operationTransfer = "transfer"
)

// ToolRunner runs the Postgres client tools.
type ToolRunner interface {
	Dump(ctx context.Context, t pgtools.Target, req model.DumpRequest) (model.ToolOutcome, error)
	Restore(ctx context.Context, t pgtools.Target, req model.RestoreRequest) (model.ToolOutcome, error)
	Transfer(ctx context.Context, src, dst pgtools.Target, req model.TransferRequest) (model.ToolOutcome, error)
}

// ToolDetector reports which client tools are installed.
type ToolDetector interface {
	Detect(ctx context.Context) model.ToolsStatus
}

// TransferService runs dumps, restores and transfers for saved connections.
// The tools open their own connections, so no live session is involved.
type TransferService struct {
	runner   ToolRunner
	detector ToolDetector
	resolver descriptorResolver
	events   events.Publisher
}

func NewTransferService(runner ToolRunner, detector ToolDetector, store ConnectionStore, secrets SecretStore, publisher events.Publisher) *TransferService {
	return &TransferService{
		runner:   runner,
		detector: detector,
		resolver: descriptorResolver{store: store, secrets: secrets},
		events:   publisher,
	}
}

func (s *TransferService) DetectTools(ctx context.Context) model.ToolsStatus {
	return s.detector.Detect(ctx)
}

func (s *TransferService) target(ctx context.Context, id string) (pgtools.Target, error) {
	desc, err := s.resolver.resolve(ctx, id, "")
	if err != nil {
		return pgtools.Target{}, err
	}
	return pgtools.TargetFromDescriptor(desc), nil
}

func (s *TransferService) Dump(ctx context.Context, req model.DumpRequest) (*model.ToolOutcome, error) {
	if strings.TrimSpace(req.OutputPath) == "" {
		return nil, apperr.New(apperr.InvalidInput, "output path is required")
	}
	if req.Format == "" {
		req.Format = model.DumpCustom
	}
	t, err := s.target(ctx, req.ConnectionID)
	if err != nil {
		return nil, err
	}

	opID := uuid.NewString()
	ctx = logctx.WithConnectionID(logctx.WithOperation(ctx, operationDump, opID), req.ConnectionID)
	slog.InfoContext(ctx, "dump started", slog.String("format", string(req.Format)), slog.Bool("schemaOnly", req.SchemaOnly))

	outcome, err := s.runner.Dump(ctx, t, req)
	s.finish(ctx, opID, operationDump, req.ConnectionID, "", outcome, err)
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (s *TransferService) Restore(ctx context.Context, req model.RestoreRequest) (*model.ToolOutcome, error) {
	if strings.TrimSpace(req.InputPath) == "" {
		return nil, apperr.New(apperr.InvalidInput, "input path is required")
	}
	t, err := s.target(ctx, req.ConnectionID)
	if err != nil {
		return nil, err
	}

	opID := uuid.NewString()
	ctx = logctx.WithConnectionID(logctx.WithOperation(ctx, operationRestore, opID), req.ConnectionID)
	slog.InfoContext(ctx, "restore started", slog.Bool("clean", req.Clean), slog.Bool("schemaOnly", req.SchemaOnly))

	outcome, err := s.runner.Restore(ctx, t, req)
	s.finish(ctx, opID, operationRestore, "", req.ConnectionID, outcome, err)
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (s *TransferService) Transfer(ctx context.Context, req model.TransferRequest) (*model.ToolOutcome, error) {
	src, err := s.target(ctx, req.SourceID)
	if err != nil {
		return nil, err
	}
	dst, err := s.target(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}

	opID := uuid.NewString()
	ctx = logctx.WithFields(logctx.WithOperation(ctx, operationTransfer, opID), map[string]any{
		"source": req.SourceID,
		"target": req.TargetID,
	})
	slog.InfoContext(ctx, "transfer started",
		slog.Int("tables", len(req.Tables)),
		slog.Bool("clean", req.Clean),
		slog.Bool("schemaOnly", req.SchemaOnly),
	)

	outcome, err := s.runner.Transfer(ctx, src, dst, req)
	s.finish(ctx, opID, operationTransfer, req.SourceID, req.TargetID, outcome, err)
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (s *TransferService) finish(ctx context.Context, opID, kind, source, target string, outcome model.ToolOutcome, err error) {
	payload := events.TransferFinishedPayload{
		OperationID: opID,
		Kind:        kind,
		Source:      source,
		Target:      target,
		Status:      string(outcome.Status),
	}
	if err != nil {
		payload.Status = string(model.OutcomeFailure)
		payload.Error = err.Error()
		slog.ErrorContext(ctx, kind+" failed", slog.Any("err", err))
	} else {
		if outcome.Status == model.OutcomeFailure {
			payload.Error = outcome.Stderr
		}
		slog.InfoContext(ctx, kind+" finished", slog.String("status", string(outcome.Status)))
	}
	if s.events != nil {
		s.events.Publish(events.Event{Name: events.TransferFinishedEvent, Payload: payload})
	}
}
