package wsv

import (
	"strings"
	"testing"
)

func mapBacked(base map[string][]byte) StateView {
	return New(
		func(key string) ([]byte, error) {
			if v, ok := base[key]; ok {
				return v, nil
			}
			return nil, nil
		},
		func(prefix string) (map[string][]byte, error) {
			out := make(map[string][]byte)
			for k, v := range base {
				if strings.HasPrefix(k, prefix) {
					out[k] = v
				}
			}
			return out, nil
		},
	)
}

func TestOverlayReadThrough(t *testing.T) {
	base := map[string][]byte{"a": []byte("1")}
	sv := mapBacked(base)

	val, ok, err := sv.Get("a")
	if err != nil || !ok || string(val) != "1" {
		t.Fatalf("read through failed: %q %v %v", val, ok, err)
	}
	if _, ok, _ := sv.Get("missing"); ok {
		t.Fatal("missing key reported as present")
	}

	sv.Set("a", []byte("2"))
	val, _, _ = sv.Get("a")
	if string(val) != "2" {
		t.Fatalf("overlay write not visible, got %q", val)
	}
	// 底层不动
	if string(base["a"]) != "1" {
		t.Fatal("base mutated by overlay write")
	}
}

func TestOverlayDelete(t *testing.T) {
	sv := mapBacked(map[string][]byte{"a": []byte("1")})
	sv.Del("a")
	if _, ok, _ := sv.Get("a"); ok {
		t.Fatal("deleted key still visible")
	}
	diff := sv.Diff()
	if len(diff) != 1 || !diff[0].Del {
		t.Fatalf("diff should carry one delete, got %+v", diff)
	}
}

func TestSnapshotRevert(t *testing.T) {
	sv := mapBacked(map[string][]byte{"a": []byte("1")})
	sv.Set("b", []byte("x"))

	snap := sv.Snapshot()
	sv.Set("b", []byte("y"))
	sv.Set("c", []byte("z"))
	sv.Del("a")

	if err := sv.Revert(snap); err != nil {
		t.Fatalf("revert: %v", err)
	}
	val, _, _ := sv.Get("b")
	if string(val) != "x" {
		t.Fatalf("b should revert to x, got %q", val)
	}
	if _, ok, _ := sv.Get("c"); ok {
		t.Fatal("c should be gone after revert")
	}
	if _, ok, _ := sv.Get("a"); !ok {
		t.Fatal("a delete should be undone")
	}
}

func TestRevertInvalidSnapshot(t *testing.T) {
	sv := mapBacked(nil)
	if err := sv.Revert(99); err != ErrInvalidSnapshot {
		t.Fatalf("want ErrInvalidSnapshot, got %v", err)
	}
}

func TestDiffSortedByKey(t *testing.T) {
	sv := mapBacked(nil)
	sv.Set("z", []byte("1"))
	sv.Set("a", []byte("2"))
	sv.Set("m", []byte("3"))
	diff := sv.Diff()
	for i := 1; i < len(diff); i++ {
		if diff[i-1].Key >= diff[i].Key {
			t.Fatalf("diff not sorted: %s >= %s", diff[i-1].Key, diff[i].Key)
		}
	}
}

func TestLayerIsolation(t *testing.T) {
	base := mapBacked(map[string][]byte{"a": []byte("1")})
	base.Set("b", []byte("2"))

	layer := Layer(base)
	val, ok, _ := layer.Get("b")
	if !ok || string(val) != "2" {
		t.Fatalf("layer should see base overlay, got %q %v", val, ok)
	}

	layer.Set("c", []byte("3"))
	if _, ok, _ := base.Get("c"); ok {
		t.Fatal("layer write leaked into base")
	}
	// layer 的 Diff 只有自己那层的写
	diff := layer.Diff()
	if len(diff) != 1 || diff[0].Key != "c" {
		t.Fatalf("layer diff wrong: %+v", diff)
	}
}

func TestScanMergesOverlay(t *testing.T) {
	sv := mapBacked(map[string][]byte{
		"p_a": []byte("1"),
		"p_b": []byte("2"),
		"q_c": []byte("3"),
	})
	sv.Set("p_d", []byte("4"))
	sv.Del("p_b")

	got, err := sv.Scan("p_")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 keys, got %v", got)
	}
	if string(got["p_a"]) != "1" || string(got["p_d"]) != "4" {
		t.Fatalf("scan merge wrong: %v", got)
	}
}
