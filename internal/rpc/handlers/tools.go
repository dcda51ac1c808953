package handlers

import (
	"context"

	"github.com/marcogbarcellos/pgstudio/internal/model"
	"github.com/marcogbarcellos/pgstudio/internal/service"
)

func detectTools(ctx context.Context, svc service.Services, _ struct{}) (model.ToolsStatus, error) {
	return svc.Transfers.DetectTools(ctx), nil
}

func dump(ctx context.Context, svc service.Services, p model.DumpRequest) (*model.ToolOutcome, error) {
	return svc.Transfers.Dump(ctx, p)
}

func restore(ctx context.Context, svc service.Services, p model.RestoreRequest) (*model.ToolOutcome, error) {
	return svc.Transfers.Restore(ctx, p)
}

func transfer(ctx context.Context, svc service.Services, p model.TransferRequest) (*model.ToolOutcome, error) {
	return svc.Transfers.Transfer(ctx, p)
}
