// Command snapshot_audit compares published result snapshots against freshly
// computed semester summaries and reports drift. Snapshots never change when
// marks are edited, so drift is expected; the report tells operators which
// students need an explicit republish.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"os"
	"time"
)

type publishedResult struct {
	ID            string  `json:"id"`
	StudentID     string  `json:"student_id"`
	Semester      int     `json:"semester"`
	ExamTerm      string  `json:"exam_term"`
	TotalObtained float64 `json:"total_obtained"`
	Percentage    float64 `json:"percentage"`
	GPA           float64 `json:"gpa"`
}

type semesterSummary struct {
	TotalObtained float64 `json:"total_obtained"`
	Percentage    float64 `json:"percentage"`
	GPA           float64 `json:"gpa"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error json.RawMessage `json:"error"`
}

type drift struct {
	Result         publishedResult
	LiveTotal      float64
	LivePercentage float64
	LiveGPA        float64
	FetchErr       error
}

func main() {
	var (
		baseURL   string
		token     string
		programID string
		semester  int
		examTerm  string
		timeout   time.Duration
		epsilon   float64
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080/api/v1", "Result API base URL")
	flag.StringVar(&token, "token", os.Getenv("RESULT_API_TOKEN"), "Bearer token with admin access")
	flag.StringVar(&programID, "program", "", "Restrict audit to one program")
	flag.IntVar(&semester, "semester", 0, "Restrict audit to one semester")
	flag.StringVar(&examTerm, "term", "", "Restrict audit to one exam term")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Float64Var(&epsilon, "epsilon", 0.01, "Tolerance before a snapshot counts as drifted")
	flag.Parse()

	if token == "" {
		log.Fatal("token required (flag -token or RESULT_API_TOKEN)")
	}

	client := &http.Client{Timeout: timeout}

	results, err := fetchPublished(client, baseURL, token, programID, semester, examTerm)
	if err != nil {
		log.Fatalf("failed to list published results: %v", err)
	}

	var drifts []drift
	for _, result := range results {
		summary, err := fetchSummary(client, baseURL, token, result)
		if err != nil {
			drifts = append(drifts, drift{Result: result, FetchErr: err})
			continue
		}
		if math.Abs(summary.TotalObtained-result.TotalObtained) > epsilon ||
			math.Abs(summary.Percentage-result.Percentage) > epsilon ||
			math.Abs(summary.GPA-result.GPA) > epsilon {
			drifts = append(drifts, drift{
				Result:         result,
				LiveTotal:      summary.TotalObtained,
				LivePercentage: summary.Percentage,
				LiveGPA:        summary.GPA,
			})
		}
	}

	printReport(len(results), drifts)
	if len(drifts) > 0 {
		os.Exit(1)
	}
}

func fetchPublished(client *http.Client, baseURL, token, programID string, semester int, examTerm string) ([]publishedResult, error) {
	query := url.Values{}
	if programID != "" {
		query.Set("programId", programID)
	}
	if semester != 0 {
		query.Set("semester", fmt.Sprintf("%d", semester))
	}
	if examTerm != "" {
		query.Set("examTerm", examTerm)
	}

	var results []publishedResult
	if err := getJSON(client, baseURL+"/results/published?"+query.Encode(), token, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func fetchSummary(client *http.Client, baseURL, token string, result publishedResult) (*semesterSummary, error) {
	query := url.Values{}
	query.Set("studentId", result.StudentID)
	query.Set("semester", fmt.Sprintf("%d", result.Semester))
	query.Set("examTerm", result.ExamTerm)

	var summary semesterSummary
	if err := getJSON(client, baseURL+"/results/summary?"+query.Encode(), token, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func getJSON(client *http.Client, rawURL, token string, dest interface{}) error {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return err
	}
	return json.Unmarshal(env.Data, dest)
}

func printReport(total int, drifts []drift) {
	fmt.Printf("audited %d published snapshots\n", total)
	if len(drifts) == 0 {
		fmt.Println("no drift detected")
		return
	}
	for _, d := range drifts {
		if d.FetchErr != nil {
			fmt.Printf("ERROR  student=%s sem=%d term=%s: %v\n", d.Result.StudentID, d.Result.Semester, d.Result.ExamTerm, d.FetchErr)
			continue
		}
		fmt.Printf("DRIFT  student=%s sem=%d term=%s snapshot=%.2f/%.2f%%/gpa %.2f live=%.2f/%.2f%%/gpa %.2f\n",
			d.Result.StudentID, d.Result.Semester, d.Result.ExamTerm,
			d.Result.TotalObtained, d.Result.Percentage, d.Result.GPA,
			d.LiveTotal, d.LivePercentage, d.LiveGPA)
	}
	fmt.Printf("%d snapshots drifted; run republish to refresh them\n", len(drifts))
}
