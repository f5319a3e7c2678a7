package intent_test

import (
	"fmt"

	"github.com/jonwraymond/queryops/intent"
)

func ExampleClassify() {
	fmt.Println(intent.Classify("weather in lisbon"))
	fmt.Println(intent.Classify("btc to usd exchange rate"))
	fmt.Println(intent.Classify("who wrote dune"))
	// Output:
	// weather
	// currency,crypto
	// general
}
