package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/barhunt/go-services/roster/store"
)

// --- Places Service Core ---

// placeDetails represents the structure of the JSON response from the
// external places API.
type placeDetails struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// PlacesService is the central component for places API interactions and the
// background bar-metadata filler. Bars claimed from the field sometimes
// arrive with just a place ID; the filler backfills name and coordinates on
// archived snapshots so the archive is browsable on its own.
type PlacesService struct {
	// For places API calls
	httpClient    *http.Client
	placesBaseURL string

	// For the background filler job's MongoDB interactions
	archiveStore   *store.ArchiveStore
	gameCode       string
	fillerInterval time.Duration

	// Control for the background job
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewPlacesService creates a new instance of PlacesService.
func NewPlacesService(
	archiveStore *store.ArchiveStore,
	gameCode string,
	placesBaseURL string,
	fillerInterval time.Duration,
) *PlacesService {
	return &PlacesService{
		httpClient:     &http.Client{Timeout: 5 * time.Second}, // Short timeout for external API
		placesBaseURL:  placesBaseURL,
		archiveStore:   archiveStore,
		gameCode:       gameCode,
		fillerInterval: fillerInterval,
		stopChan:       make(chan struct{}),
	}
}

// GetPlaceDetails fetches name and coordinates for a place ID from the
// external places API.
func (ps *PlacesService) GetPlaceDetails(ctx context.Context, placeID string) (placeDetails, error) {
	url := fmt.Sprintf("%s/%s", ps.placesBaseURL, placeID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return placeDetails{}, fmt.Errorf("failed to create places API request: %w", err)
	}

	resp, err := ps.httpClient.Do(req)
	if err != nil {
		return placeDetails{}, fmt.Errorf("failed to make places API request for place %s: %w", placeID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return placeDetails{}, fmt.Errorf("place not found for ID %s (Status: %d)", placeID, resp.StatusCode)
		}
		return placeDetails{}, fmt.Errorf("unexpected status from places API for place %s: %d", placeID, resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return placeDetails{}, fmt.Errorf("failed to read places API response body for place %s: %w", placeID, err)
	}

	var details placeDetails
	if err := json.Unmarshal(bodyBytes, &details); err != nil {
		return placeDetails{}, fmt.Errorf("failed to unmarshal places API response for place %s: %w", placeID, err)
	}

	if details.Name == "" {
		return placeDetails{}, fmt.Errorf("places API returned empty name for place %s", placeID)
	}

	return details, nil
}

// StartFillerJob begins the background bar-metadata filler job.
// You would call this once from your main function to start the background process.
func (ps *PlacesService) StartFillerJob() {
	ps.wg.Add(1)
	defer ps.wg.Done()

	ticker := time.NewTicker(ps.fillerInterval)
	defer ticker.Stop()

	log.Printf("PlacesService: Background bar-metadata filler job started, running every %v", ps.fillerInterval)

	// Run immediately once, then on ticker intervals
	ps.performSingleFillerIteration()

	for {
		select {
		case <-ticker.C:
			ps.performSingleFillerIteration()
		case <-ps.stopChan:
			log.Println("PlacesService: Background bar-metadata filler job stopping.")
			return
		}
	}
}

// StopFillerJob signals the background job to cease operations and waits for it to finish.
// You would call this during your application's graceful shutdown.
func (ps *PlacesService) StopFillerJob() {
	log.Println("PlacesService: Signaling background bar-metadata filler job to stop...")
	close(ps.stopChan)
	ps.wg.Wait()
	log.Println("PlacesService: Background bar-metadata filler job stopped successfully.")
}

// performSingleFillerIteration contains the core logic for one pass over the
// latest archived snapshot.
func (ps *PlacesService) performSingleFillerIteration() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second) // Timeout for this iteration
	defer cancel()

	latest, err := ps.archiveStore.LatestSnapshot(ctx, ps.gameCode)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return // Nothing archived yet.
		}
		log.Printf("PlacesService: Error during filler job - loading latest snapshot: %v", err)
		return
	}

	barsToFill := make([]string, 0)
	for placeID, bar := range latest.Snapshot.Bars {
		if bar.Name == "" {
			barsToFill = append(barsToFill, placeID)
		}
	}
	if len(barsToFill) == 0 {
		return
	}

	log.Printf("PlacesService: Found %d bars with missing metadata to process.", len(barsToFill))

	for _, placeID := range barsToFill {
		// Respect context cancellation and add a small delay
		select {
		case <-ctx.Done():
			log.Printf("PlacesService: Filler job iteration cancelled for place %s: %v", placeID, ctx.Err())
			return
		case <-time.After(100 * time.Millisecond): // Pause before next API call to avoid rate limits
			// Continue
		}

		details, placesErr := ps.GetPlaceDetails(ctx, placeID)
		if placesErr != nil {
			log.Printf("PlacesService: WARN: Filler job failed to fetch details for place %s: %v", placeID, placesErr)
			continue
		}

		if err := ps.archiveStore.FillBarMetadata(ctx, latest.ID, placeID, details.Name, details.Lat, details.Lng); err != nil {
			log.Printf("PlacesService: WARN: Filler job failed to update bar %s in DB: %v", placeID, err)
		} else {
			log.Printf("PlacesService: INFO: Filler job filled metadata for bar %s (%s).", placeID, details.Name)
		}
	}
}
