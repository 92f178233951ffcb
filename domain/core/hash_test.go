package core

import "testing"

func TestComputeParamsHashIsOrderIndependent(t *testing.T) {
	a := ComputeParamsHash("pca", map[string]interface{}{"columns": "a,b", "components": 2})
	b := ComputeParamsHash("pca", map[string]interface{}{"components": 2, "columns": "a,b"})
	if !a.Equals(b) {
		t.Errorf("Expected identical hashes, got %s and %s", a, b)
	}

	c := ComputeParamsHash("clusters", map[string]interface{}{"columns": "a,b", "components": 2})
	if a.Equals(c) {
		t.Error("Different operations must not share a hash")
	}
}

func TestHashShort(t *testing.T) {
	h := NewHash([]byte("dataset"))
	if len(h.Short()) != 12 {
		t.Errorf("Expected 12 characters, got %d", len(h.Short()))
	}
	if Hash("abc").Short() != "abc" {
		t.Error("Short hashes must be returned unchanged")
	}
}

func TestComputeParamsHashSeparatesListElements(t *testing.T) {
	a := ComputeParamsHash("correlations", map[string]interface{}{"columns": []string{"a b", "c"}})
	b := ComputeParamsHash("correlations", map[string]interface{}{"columns": []string{"a", "b c"}})
	if a.Equals(b) {
		t.Error("Column lists that print alike must not share a hash")
	}

	c := ComputeParamsHash("describe", map[string]interface{}{"column": "1"})
	d := ComputeParamsHash("describe", map[string]interface{}{"column": 1})
	if c.Equals(d) {
		t.Error("A string and a number must not share a hash")
	}
}
