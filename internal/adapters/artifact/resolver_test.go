package artifact

import (
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	. "github.com/smartystreets/goconvey/convey"
)

const sha = "989aa7980e4cf806f80c7fef2b1adb7bc71aa306"

func cache(files map[string]string) fstest.MapFS {
	m := fstest.MapFS{}
	for name, body := range files {
		m[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return m
}

func TestResolve(t *testing.T) {
	Convey("Given a model cache", t, func() {
		Convey("When refs/main points at a complete snapshot", func() {
			r := NewResolver("/cache/qwen", WithFS(cache(map[string]string{
				"refs/main":                          sha + "\n",
				"snapshots/" + sha + "/config.json":  `{"model_type":"qwen2"}`,
				"snapshots/" + sha + "/tokenizer.js": "{}",
			})))

			snap, err := r.Resolve("main")

			Convey("Then the snapshot directory is returned", func() {
				So(err, ShouldBeNil)
				So(snap.Commit, ShouldEqual, sha)
				So(snap.Dir, ShouldEqual, filepath.Join("/cache/qwen", "snapshots", sha))
				So(snap.ModelType, ShouldEqual, "qwen2")
			})
		})

		Convey("When the ref file is missing", func() {
			_, err := NewResolver("/c", WithFS(cache(map[string]string{}))).Resolve("main")
			So(errors.Is(err, ErrSnapshotNotFound), ShouldBeTrue)
		})

		Convey("When the ref names a snapshot that is not there", func() {
			_, err := NewResolver("/c", WithFS(cache(map[string]string{
				"refs/main":                   "deadbeef",
				"snapshots/other/config.json": "{}",
			}))).Resolve("main")
			So(errors.Is(err, ErrSnapshotNotFound), ShouldBeTrue)
		})

		Convey("When the ref is blank", func() {
			_, err := NewResolver("/c", WithFS(cache(map[string]string{"refs/main": " \n"}))).Resolve("main")
			So(errors.Is(err, ErrCorruptArtifact), ShouldBeTrue)
		})

		Convey("When the ref tries to leave the snapshots directory", func() {
			_, err := NewResolver("/c", WithFS(cache(map[string]string{"refs/main": "../refs"}))).Resolve("main")
			So(errors.Is(err, ErrCorruptArtifact), ShouldBeTrue)

			_, err = NewResolver("/c", WithFS(cache(map[string]string{}))).Resolve("../main")
			So(errors.Is(err, ErrCorruptArtifact), ShouldBeTrue)
		})

		Convey("When config.json is missing or broken", func() {
			_, err := NewResolver("/c", WithFS(cache(map[string]string{
				"refs/main":                     sha,
				"snapshots/" + sha + "/weights": "x",
			}))).Resolve("main")
			So(errors.Is(err, ErrCorruptArtifact), ShouldBeTrue)

			_, err = NewResolver("/c", WithFS(cache(map[string]string{
				"refs/main":                         sha,
				"snapshots/" + sha + "/config.json": "{not json",
			}))).Resolve("main")
			So(errors.Is(err, ErrCorruptArtifact), ShouldBeTrue)
		})

		Convey("When resolving from disk", func() {
			root := t.TempDir()
			So(writeFile(filepath.Join(root, "refs", "main"), sha), ShouldBeNil)
			So(writeFile(filepath.Join(root, "snapshots", sha, "config.json"), `{"model_type":"qwen2"}`), ShouldBeNil)

			snap, err := NewResolver(root).Resolve("main")
			So(err, ShouldBeNil)
			So(snap.Dir, ShouldEqual, filepath.Join(root, "snapshots", sha))
		})
	})
}
