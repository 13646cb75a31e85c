// Package testutil provides shared test utilities and moq-generated mocks.
//
// Mocks are generated using moq (github.com/matryer/moq) and can be regenerated with:
//
//	go generate ./...
//
// Each mock is generated from the interface definition in its source package.
// The mocks use function-field style, allowing tests to customize behavior per-test:
//
//	remote := &testutil.RemoteMock{
//	    ScopeAndExecuteBatchFunc: func(ctx context.Context, repo string, req api.BatchRequest) (*api.BatchRunResult, error) {
//	        return &api.BatchRunResult{Results: []api.ExecutionResult{}}, nil
//	    },
//	}
package testutil
