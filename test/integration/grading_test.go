//go:build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patternlab/structmark/internal/core"
	"github.com/patternlab/structmark/internal/core/diff"
	"github.com/patternlab/structmark/internal/core/model"
	"github.com/patternlab/structmark/internal/driver"
)

// TestGradeAndFetchSubmission exercises the full grading path against a live
// Memgraph: grade a source submission, persist the normalized model, read it
// back. Run with: go test -tags integration ./test/integration/...
func TestGradeAndFetchSubmission(t *testing.T) {
	_ = godotenv.Load("../../.env")

	uri := os.Getenv("MEMGRAPH_URI")
	if uri == "" {
		t.Skip("Skipping integration test: MEMGRAPH_URI not set")
	}

	d, err := driver.NewMemgraphDriver(uri, os.Getenv("MEMGRAPH_USER"), os.Getenv("MEMGRAPH_PASSWORD"))
	require.NoError(t, err)
	defer d.Close(context.Background())
	require.NoError(t, d.BuildIndices(context.Background()))

	rubric, err := model.Decode([]byte(`{
		"classes": [
			{"name": "Animal", "kind": "abstract", "methods": ["speak"]},
			{"name": "Dog", "kind": "class", "methods": ["speak"]}
		],
		"relationships": [
			{"type": "Inheritance", "from": "Dog", "to": "Animal"}
		]
	}`))
	require.NoError(t, err)

	marker := core.NewMarker(d, diff.DefaultWeights())

	src := `class Animal {
public:
    virtual void speak() { }
};

class Dog : public Animal {
public:
    void speak() override { }
};`
	result := marker.GradeSource(context.Background(), src, rubric)
	require.NotEmpty(t, result.SubmissionID)
	assert.Equal(t, 6, result.Score)
	assert.Equal(t, 6, result.MaxScore)

	stored, err := marker.GetSubmission(context.Background(), result.SubmissionID)
	require.NoError(t, err)

	assert.Equal(t, result.NormalizedStudent.ClassNames(), stored.ClassNames())
	assert.Equal(t, []string{"speak"}, stored.Classes["Dog"].SortedMethods())
	assert.Contains(t, stored.Relationships, model.Relationship{Kind: model.Inheritance, From: "Dog", To: "Animal"})
}
