package datastore

// sampleCSV mirrors the OTN blue shark detection export layout.
const sampleCSV = `tagname,datecollected,station,latitude,longitude,scientificname,commonname,receiver
A69-1601-1234,2023-06-21 12:00:00,HFX001,44.0,-63.0,Prionace glauca,blue shark,VR2W-1
A69-1601-1234,2023-06-21 13:00:00,HFX002,44.01,-63.0,Prionace glauca,blue shark,VR2W-2
A69-1601-5678,2023-06-22 01:30:00,CBS010,45.5,-60.1,Prionace glauca,blue shark,VR2W-9
A69-1601-1234,2023-06-21 11:00:00,CBS003,43.9,-63.1,Prionace glauca,blue shark,VR2W-3
`
