package sqlinline

const QInsertDonation = `--sql 4b21f81b-dee6-4d4a-b19b-810b0cae9464
insert into donations(id, event_id, donor_name, amount, custom_fields, created_at)
values ($1::uuid, $2::uuid, $3::text, $4::numeric, coalesce($5::jsonb, '{}'::jsonb), $6::timestamptz);
`

const QGetDonation = `--sql 0daeba1f-b2d4-40ea-ac23-541c9a216952
select id::text, event_id::text, donor_name, amount::text, custom_fields, created_at, updated_at
from donations
where event_id = $1::uuid and id = $2::uuid;
`

const QListDonationsByEvent = `--sql 8673ed0a-cde4-40ad-a48b-2ee7741340e7
select id::text, event_id::text, donor_name, amount::text, custom_fields, created_at, updated_at
from donations
where event_id = $1::uuid
order by created_at desc, id desc;
`

const QUpdateDonation = `--sql 469e0359-cb0c-4cdf-9b5f-1f4369a6d251
update donations
set donor_name = $3::text,
    amount = $4::numeric,
    custom_fields = coalesce($5::jsonb, '{}'::jsonb),
    updated_at = now()
where event_id = $1::uuid and id = $2::uuid
returning created_at, updated_at;
`

const QDeleteDonation = `--sql 187abee7-fc94-49a9-ab08-13017fc53333
delete from donations where event_id = $1::uuid and id = $2::uuid;
`
