// Package shipbook extracts structured shipping-booking data from
// unstructured free text by orchestrating schema-scoped calls to a large
// language model and reconciling the partial results into one validated
// booking record.
//
// # Problem Statement
//
// A transport order arrives as prose: pickup and delivery parties, a billing
// address, dates, time windows and a list of goods, all mixed into a few
// paragraphs. Asking a model for the whole record in one call couples every
// field to the quality of one giant prompt. shipbook decomposes the job into
// fourteen small, schema-scoped extraction calls instead:
//
//   - each call targets one declared field group (pickup basis, pickup
//     location, billing communication, shipment item dimensions, ...)
//   - calls for one entity run concurrently under a worker cap
//   - raw model output is validated against a JSON Schema per group before
//     it is accepted; out-of-range numbers and unknown enum values fail the
//     attempt instead of leaking downstream
//   - a per-entity merge combines the partial results deterministically,
//     and a terminal assembly step always produces a complete record
//
// A failed extraction degrades the affected fields to null; it never fails
// the run. The only fatal errors are pre-flight (missing credential, missing
// prompt template).
//
// # Basic Usage
//
//	cfg, err := shipbook.LoadConfig() // reads .env / environment
//	if err != nil {
//	    log.Fatal(err) // pre-flight: e.g. GEMINI_API_KEY missing
//	}
//	x, err := shipbook.NewFromConfig(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	record, _ := x.Run(ctx, orderText)
//	fmt.Println(record.PickupAddress["postal_code"])
//
// # Topologies
//
// The workflow graph supports two execution orders, chosen at build time:
//
//   - TopologyParallel: all four task groups start together. Lowest latency;
//     up to len(groups) * workers calls in flight.
//   - TopologyChained: groups execute in sequence (pickup, delivery,
//     billing, shipment). Caps total concurrent outbound calls when the
//     provider's rate limits are tighter than the parallel topology
//     tolerates.
//
// The per-group worker cap (default 2) is backpressure against the
// provider's own request queue, not a performance knob.
//
//	x, err := shipbook.New(invoker, prompts,
//	    shipbook.WithTopology(shipbook.TopologyChained),
//	    shipbook.WithMaxWorkers(2),
//	    shipbook.WithRetry(2, 200*time.Millisecond),
//	)
//
// # Progress Events
//
// An optional sink observes node transitions. Events are fire-and-forget:
// a slow or panicking subscriber cannot affect the run.
//
//	x, _ := shipbook.New(invoker, prompts,
//	    shipbook.WithProgressSink(shipbook.ProgressFunc(func(e shipbook.ProgressEvent) {
//	        fmt.Printf("%s: %s\n", e.Node, e.Status)
//	    })))
//
// # Planning
//
// Explain describes the configured graph without calling the model: member
// tasks, prompts, the min/max outbound call budget and the peak concurrency
// the topology allows.
//
//	fmt.Println(x.Explain())
//
// # Known Limitation
//
// The shipment basics and dimensions sub-extractions each return an item
// list with no stable item identifier; elements are paired positionally by
// index. When the two calls disagree on how many items the text describes,
// extra dimension entries are discarded and the mismatch is logged, not
// reconciled.
package shipbook
