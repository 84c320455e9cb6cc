package core

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// MockDriver records every executed query in order. SaveSubmission issues
// several queries per call, so a last-write-only mock would lose most of
// them; ResultQueue serves reads that need different results per query.
type MockDriver struct {
	Queries     []string
	Params      []map[string]interface{}
	MockResult  neo4j.EagerResult
	ResultQueue []neo4j.EagerResult
	Err         error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.Queries = append(m.Queries, query)
	m.Params = append(m.Params, params)
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	if len(m.ResultQueue) > 0 {
		result := m.ResultQueue[0]
		m.ResultQueue = m.ResultQueue[1:]
		return result, nil
	}
	return m.MockResult, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}
