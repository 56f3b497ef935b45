// Package bench runs the decode benchmark.
//
// Each Step refreshes the source pattern when the refresh timer expires,
// runs the kernel, scalar and vector decoders against the same source, and
// accumulates their times. When the report timer expires, a Report with
// per-path means is logged and handed to the optional ReportFunc, and the
// window starts over. The two timers are independent Stopwatch values.
//
//	b, err := bench.New(bench.Config{Width: 1024, Height: 1024}, dec,
//		bench.WithReportFunc(func(r bench.Report) { fmt.Println(r) }))
//	err = b.Run(ctx)
package bench
