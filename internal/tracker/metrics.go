package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"readingtracker/internal/models"
)

var (
	// mutationsTotal counts mutations by operation and outcome
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "readingtracker_mutations_total",
		Help: "Book mutations by operation and outcome",
	}, []string{"operation", "outcome"})

	// saveErrorsTotal counts failed collection saves
	saveErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "readingtracker_save_errors_total",
		Help: "Collection saves that failed",
	})

	// booksByStatus tracks the size of each shelf
	booksByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "readingtracker_books",
		Help: "Books in the collection by status",
	}, []string{"status"})
)

func observeShelves(books []models.Book) {
	counts := map[models.Status]int{
		models.StatusWantToRead: 0,
		models.StatusReading:    0,
		models.StatusRead:       0,
	}
	for _, b := range books {
		counts[b.Status]++
	}
	for status, n := range counts {
		booksByStatus.WithLabelValues(string(status)).Set(float64(n))
	}
}
