// Package warmup provides a client for the Warmup cloud thermostat API
// (4iE, 6iE and Element smart thermostats).
//
// # Basic Usage
//
//	ctx := context.Background()
//	client, err := warmup.NewClient("me@example.com", "secret")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if _, err := client.Start(ctx); err != nil {
//	    log.Printf("bootstrap failed, continuing without rooms: %v", err)
//	}
//
//	for _, st := range client.Statuses() {
//	    fmt.Println(st.RoomName, st.Mode, st.CurrentTemp)
//	}
//
//	_, err = client.SetMode(ctx, 1234, warmup.ModeAuto)
//
// # Configuration
//
// The client can be configured using functional options:
//
//	client, err := warmup.NewClient(user, pass,
//	    warmup.WithRefreshInterval(2*time.Minute),
//	    warmup.WithOverrideDuration(90*time.Minute),
//	    warmup.WithLogger(slog.Default()),
//	)
//
// # State
//
// Start authenticates, discovers the first location of the account and
// fetches every room. A background poller then refreshes the room cache at
// half the refresh interval. Every successful command schedules one more
// refresh without waiting for it.
//
// Rooms are reduced to three canonical modes (off, heat, auto) by MapMode.
// Temperatures travel on the wire as tenths of a degree.
package warmup
