// Command example-grader is a reference grader for speedgrader. It reads one
// submission bundle as JSON on stdin and prints {grade, comment, points,
// metrics} on stdout.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"discussion-grader/internal/model"
	"discussion-grader/internal/rubric"
)

func main() {
	if err := run(os.Stdin, os.Stdout); err != nil {
		// The error is still JSON so speedgrader can record it.
		out, _ := json.MarshalIndent(map[string]string{
			"error":   err.Error(),
			"grade":   "0",
			"comment": fmt.Sprintf("Grading error: %v", err),
		}, "", "  ")
		fmt.Println(string(out))
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(data)) == "" {
		return errors.New("no input data received")
	}

	var bundle model.SubmissionBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return fmt.Errorf("invalid submission JSON: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rubric.Grade(bundle))
}
