package s3

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

/*
Conn wraps a MinIO client scoped to a single bucket.  Connection parameters
come from the s3.* configuration keys.
*/
type Conn struct {
	client *minio.Client
	bucket string
}

func NewConn() (*Conn, error) {
	v := viper.GetViper()

	client, err := minio.New(v.GetString("s3.endpoint"), &minio.Options{
		Creds: credentials.NewStaticV4(
			v.GetString("s3.accessKey"),
			v.GetString("s3.secretKey"),
			"",
		),
		Secure: v.GetBool("s3.useSSL"),
	})

	if err != nil {
		return nil, err
	}

	return &Conn{client: client, bucket: v.GetString("s3.bucket")}, nil
}

func (conn *Conn) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := conn.client.GetObject(
		ctx, conn.bucket, key, minio.GetObjectOptions{},
	)

	if err != nil {
		return nil, err
	}

	defer obj.Close()
	return io.ReadAll(obj)
}

func (conn *Conn) Put(ctx context.Context, key string, data []byte) error {
	_, err := conn.client.PutObject(
		ctx, conn.bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)

	return err
}

func (conn *Conn) Remove(ctx context.Context, key string) error {
	return conn.client.RemoveObject(
		ctx, conn.bucket, key, minio.RemoveObjectOptions{},
	)
}
