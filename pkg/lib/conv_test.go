package lib

import (
	"testing"
)

func stringToInt(input string) int {
	return len(input)
}

func TestMapValues(t *testing.T) {
	array := []string{"mynameisjeff", "tim", "bob", "derek"}

	intArray := Map(array, stringToInt)

	for index, elem := range intArray {
		if len(array[index]) != elem {
			t.Fatalf(`Have %d want %d`, elem, len(array[index]))
		}
	}
}

func TestSequentialIdGenerator(t *testing.T) {
	generator := &SequentialIdGenerator{}

	first, _ := generator.GetId()
	second, _ := generator.GetId()

	if first != "tx-1" || second != "tx-2" {
		t.Fatalf(`Expected tx-1 and tx-2 got %s and %s`, first, second)
	}
}
