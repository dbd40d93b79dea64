package ctxutil

import (
	"context"
	"testing"
)

func TestRequestDataRoundTrip(t *testing.T) {
	if GetRequestData(context.Background()) != nil {
		t.Fatal("expected nil request data on bare context")
	}
	ctx := WithRequestData(context.Background(), &RequestData{IdentityID: "u-1", Role: "admin", RequestID: "r-1"})
	if IdentityID(ctx) != "u-1" || RequestID(ctx) != "r-1" {
		t.Fatalf("unexpected request data %#v", GetRequestData(ctx))
	}
}
