package proc

import (
	"testing"

	"github.com/BinToss/DeadLock/pkg/model"
)

const lsofSample = `p101
fcwd
n/Users/me/project
ftxt
n/usr/bin/vim
f3u
n/Users/me/project/main.go
f4u
nlocalhost:5432->localhost:60123
p202
f7r
n/Users/me/project/main.go
frtd
n/
`

func TestParseLsofFields(t *testing.T) {
	handles := parseLsofFields(lsofSample, Options{})
	want := []model.OpenHandle{
		{PID: 101, Handle: 3, Path: "/Users/me/project/main.go", Kind: model.HandleFile},
		{PID: 202, Handle: 7, Path: "/Users/me/project/main.go", Kind: model.HandleFile},
	}
	if len(handles) != len(want) {
		t.Fatalf("got %d handles (%+v), want %d", len(handles), handles, len(want))
	}
	for i := range want {
		if handles[i] != want[i] {
			t.Fatalf("handle %d = %+v, want %+v", i, handles[i], want[i])
		}
	}
}

func TestParseLsofFieldsOptionalKinds(t *testing.T) {
	handles := parseLsofFields(lsofSample, Options{IncludeCwd: true, IncludeMaps: true})
	kinds := map[model.HandleKind]int{}
	for _, h := range handles {
		kinds[h.Kind]++
	}
	if kinds[model.HandleCwd] != 1 || kinds[model.HandleMmap] != 1 || kinds[model.HandleFile] != 2 {
		t.Fatalf("unexpected kinds %v", kinds)
	}
}
