package utils

import (
	"os"
	"testing"

	"go.viam.com/test"
)

func TestResolveFile(t *testing.T) {
	_, err := os.Stat(ResolveFile("models/panda.json"))
	test.That(t, err, test.ShouldBeNil)
}
