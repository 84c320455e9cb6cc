package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/patternlab/structmark/internal/core"
	"github.com/patternlab/structmark/internal/core/diff"
	"github.com/patternlab/structmark/internal/core/model"
)

// Offline grading runner: marks one student artifact against a rubric file
// and prints the result, without the HTTP server or any backing services.
//
//	grade -rubric rubric.json -student submission.cpp
//	grade -rubric rubric.json -student export.json -diagram
func main() {
	rubricPath := flag.String("rubric", "", "path to a CanonicalModel-shaped rubric JSON file")
	studentPath := flag.String("student", "", "path to the student artifact (source text or diagram export)")
	isDiagram := flag.Bool("diagram", false, "treat the student artifact as a diagram export instead of source text")
	flag.Parse()

	if *rubricPath == "" || *studentPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	rubricData, err := os.ReadFile(*rubricPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read rubric: %v\n", err)
		os.Exit(1)
	}
	rubric, err := model.Decode(rubricData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid rubric: %v\n", err)
		os.Exit(1)
	}

	studentData, err := os.ReadFile(*studentPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read student artifact: %v\n", err)
		os.Exit(1)
	}

	marker := core.NewMarker(nil, diff.DefaultWeights())

	var result *core.Result
	if *isDiagram {
		result = marker.GradeDiagram(context.Background(), studentData, rubric)
	} else {
		result = marker.GradeSource(context.Background(), string(studentData), rubric)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(out))
	fmt.Fprintf(os.Stderr, "%d / %d (classes %d, relationships %d, methods %d)\n",
		result.Score, result.MaxScore, result.Breakdown.ClassScore,
		result.Breakdown.RelationshipScore, result.Breakdown.MethodScore)
}
