package herald_test

import (
	"fmt"

	"github.com/heraldbus/herald"
)

func ExampleBus() {
	bus := herald.New()

	_ = bus.Add("greet", func(args ...any) error {
		fmt.Println("hello,", args[0])
		return nil
	}, herald.WithPriority(1))
	_ = bus.Add("greet", func(args ...any) error {
		fmt.Println("goodbye,", args[0])
		return nil
	}, herald.WithPriority(5))

	bus.Emit("greet", "world")
	// Output:
	// hello, world
	// goodbye, world
}

func ExampleBus_metaEvent() {
	bus := herald.New()

	_ = bus.Add(herald.MetaEvent, func(args ...any) error {
		fmt.Printf("observed %q with %v\n", args[0], args[1])
		return nil
	})

	bus.Emit("order.placed", 42)
	// Output:
	// observed "order.placed" with [42]
}

func ExampleAsyncBus() {
	bus := herald.NewAsync(herald.WithErrorHandler(
		func(event string, err error, _ []any) {
			fmt.Printf("%s failed: %v\n", event, err)
		},
	))

	_ = bus.Add("build", func(args ...any) (herald.Pending, error) {
		fmt.Println("compiling", args[0])
		return herald.Spawn(func() error {
			return fmt.Errorf("missing dependency")
		}), nil
	})

	bus.Emit("build", "herald")
	// Output:
	// compiling herald
	// build failed: missing dependency
}

func ExampleThreadedBus_scoped() {
	bus := herald.NewThreaded()

	_ = bus.Add("job", func(args ...any) error {
		fmt.Println("processing", args[0])
		return nil
	})

	bus.Scoped(func() {
		bus.Emit("job", "batch-1")
		bus.WaitForIdle()
	})
	// Output:
	// processing batch-1
}
