package triage

import (
	"strconv"

	"draft_worker/core/domain"
	"draft_worker/core/service/classification"
)

func classifyForTest(subject, body string) domain.Classification {
	return classification.Classify(subject, body)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
