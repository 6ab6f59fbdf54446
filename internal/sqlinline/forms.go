package sqlinline

const QGetDonorForm = `--sql bfe57c8e-6a66-4668-9e72-aec0f53025da
select fields, version, updated_at
from donor_forms
where event_id = $1::uuid;
`

// QInsertDonorForm writes version 1. No row back means another writer got
// there first.
const QInsertDonorForm = `--sql dcccadb5-4ce5-4157-8419-aeb183e69bab
insert into donor_forms(event_id, fields, version, updated_at)
values ($1::uuid, $2::jsonb, 1, now())
on conflict (event_id) do nothing
returning version, updated_at;
`

// QBumpDonorForm replaces the fields only while version still equals $3.
const QBumpDonorForm = `--sql 3dbd718c-fb7c-4acc-94db-d47afe47170e
update donor_forms
set fields = $2::jsonb,
    version = version + 1,
    updated_at = now()
where event_id = $1::uuid and version = $3::bigint
returning version, updated_at;
`
