package blobstore

import (
	"context"
	"time"
)

// Files agrupa los archivos de una colección: todos en Bucket, bajo
// <owner>/<Dir>/. Los borrados son best-effort y sus fallos van a
// OnRemoveError.
type Files struct {
	Store  Store
	Bucket string
	Dir    string

	OnRemoveError func(path string, err error)
}

func (f Files) Upload(ctx context.Context, owner string, file File, now time.Time) (Stored, error) {
	return Put(ctx, f.Store, f.Bucket, ObjectPath(owner, f.Dir, file.Name, now), file)
}

// Discard borra un objeto por path. "" no hace nada.
func (f Files) Discard(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := f.Store.Remove(ctx, f.Bucket, path); err != nil && f.OnRemoveError != nil {
		f.OnRemoveError(path, err)
	}
}

// DiscardURL borra el objeto al que apunta una URL pública del bucket.
func (f Files) DiscardURL(ctx context.Context, publicURL string) {
	f.Discard(ctx, PathFromPublicURL(f.Bucket, publicURL))
}

// Replace guarda un registro que puede traer un archivo nuevo.
// Con file != nil sube primero y pasa la URL nueva a save; si save falla
// borra lo recién subido, si no borra el archivo de oldURL.
// Con file == nil llama a save("").
func (f Files) Replace(ctx context.Context, owner string, file *File, now time.Time, oldURL string, save func(newURL string) error) error {
	if file == nil {
		return save("")
	}

	st, err := f.Upload(ctx, owner, *file, now)
	if err != nil {
		return err
	}
	if err := save(st.URL); err != nil {
		f.Discard(ctx, st.Path)
		return err
	}
	f.DiscardURL(ctx, oldURL)
	return nil
}
