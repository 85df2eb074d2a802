// Package harvest pages through the Hyundai service-network listing endpoint
// one region at a time and turns each listed item into a model.RawListing.
//
// A run is a fold over regions: FetchPartition fetches a single region and
// returns everything it collected together with the reason it stopped, and
// Harvester.Run combines the per-region results into one Result. A failing
// region never aborts the run and keeps the records it already gathered.
//
// Coordinates arrive as an unordered pair. ReconcileCoordinates assumes the
// listings are in South Korea, where longitude (124-132) always exceeds 100
// and latitude (33-43) never does.
package harvest
