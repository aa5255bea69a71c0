package clinicalrecord

import "context"

type RepositoryInterface interface {
	CreateRecord(ctx context.Context, ownerID string, req CreateRecordRequest) (*ClinicalRecord, error)
	GetRecord(ctx context.Context, ownerID, id string) (*ClinicalRecord, error)
	ListRecords(ctx context.Context, ownerID, patientID string) ([]ClinicalRecord, error)
	UpdateRecord(ctx context.Context, ownerID, id string, req UpdateRecordRequest) (*ClinicalRecord, error)
	DeleteRecord(ctx context.Context, ownerID, id string) error
}

var _ RepositoryInterface = (*Repository)(nil)
