package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/acksell/singletable/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/aws"
)

// Store reads and writes models through any ddbiface.Database.
type Store struct {
	db ddbiface.Database
}

func NewStore(db ddbiface.Database) *Store {
	return &Store{db: db}
}

func (s *Store) PutModel(ctx context.Context, m Model) error {
	rec, err := m.Record()
	if err != nil {
		return err
	}
	return s.db.PutItem(ctx, rec)
}

func (s *Store) GetModel(ctx context.Context, name string) (Model, error) {
	key := ModelKey(name)
	rec, err := s.db.GetItem(ctx, key.PK, key.SK)
	if err != nil {
		return Model{}, fmt.Errorf("get model %q: %w", name, err)
	}
	if rec == nil {
		return Model{}, fmt.Errorf("model %q: %w", name, ErrNotFound)
	}
	return unmarshal[Model](rec)
}

// PutSubModel stores sm if its parent model exists. The existence check and
// the write happen in one transaction.
func (s *Store) PutSubModel(ctx context.Context, sm SubModel) error {
	rec, err := sm.Record()
	if err != nil {
		return err
	}
	parent := ModelKey(sm.Parent)
	err = s.db.TransactWriteItems(ctx, []ddbiface.TransactItem{
		ddbiface.ConditionCheckExists(parent.PK, parent.SK, KindModel),
		ddbiface.Put(rec),
	})
	if errors.Is(err, ddbiface.ErrConflict) {
		return fmt.Errorf("submodel %q: %w: %w", sm.Name, ErrParentNotFound, err)
	}
	return err
}

func (s *Store) GetSubModel(ctx context.Context, parent, name string) (SubModel, error) {
	key := SubModelKey(parent, name)
	rec, err := s.db.GetItem(ctx, key.PK, key.SK)
	if err != nil {
		return SubModel{}, fmt.Errorf("get submodel %q of %q: %w", name, parent, err)
	}
	if rec == nil {
		return SubModel{}, fmt.Errorf("submodel %q of %q: %w", name, parent, ErrNotFound)
	}
	return unmarshal[SubModel](rec)
}

// ListSubModels returns the submodels of parent ordered by name.
func (s *Store) ListSubModels(ctx context.Context, parent string) ([]SubModel, error) {
	key := ModelKey(parent)
	out, err := s.db.Query(ctx, nil, key.PK, subModelPrefix(parent))
	if err != nil {
		return nil, fmt.Errorf("list submodels of %q: %w", parent, err)
	}
	return unmarshalAll[SubModel](out.Items)
}

// ListModels returns every model ordered by name, read from the model index.
func (s *Store) ListModels(ctx context.Context) ([]Model, error) {
	out, err := s.db.Query(ctx, aws.String(table.ModelIndex), KindModel, "model#")
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return unmarshalAll[Model](out.Items)
}

func unmarshalAll[T any](items []table.Record) ([]T, error) {
	res := make([]T, 0, len(items))
	for _, item := range items {
		v, err := unmarshal[T](item)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}
