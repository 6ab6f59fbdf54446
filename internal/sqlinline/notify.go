package sqlinline

const QNotifyChange = `--sql 5ee230fe-fbda-4175-a0b2-7aff46bf51b5
select pg_notify($1::text, $2::text);
`
